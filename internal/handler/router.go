package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lessonplan-api/internal/middleware"
	"github.com/noah-isme/lessonplan-api/internal/models"
)

// Routes groups every handler mounted under the API prefix.
type Routes struct {
	Auth             *AuthHandler
	Users            *UserHandler
	LessonPlans      *LessonPlanHandler
	TutorLessonPlans *TutorLessonPlanHandler
	Students         *StudentHandler
	Classes          *ClassHandler
	Dashboard        *DashboardHandler
	Generation       *GenerationHandler
	Exports          *ExportHandler
	Metrics          *MetricsHandler

	Tokens middleware.TokenValidator
	Audit  middleware.AuditWriter
}

// Register mounts the API under api.
func (rt Routes) Register(api *gin.RouterGroup) {
	api.POST("/auth/verify", rt.Auth.Verify)
	if rt.Exports != nil {
		api.GET("/exports/download/:token", rt.Exports.Download)
	}

	secured := api.Group("", middleware.JWT(rt.Tokens))
	secured.GET("/me", rt.Users.Me)
	secured.PUT("/me/mode", rt.Users.SetMode)
	secured.GET("/dashboard", rt.Dashboard.View)
	secured.POST("/generate-lesson", rt.Generation.Generate)

	plans := secured.Group("/lesson-plans", middleware.Audit(rt.Audit, "lesson_plan", nil))
	plans.GET("", rt.LessonPlans.List)
	plans.POST("", rt.LessonPlans.Create)
	plans.GET("/:id", rt.LessonPlans.Get)
	plans.PUT("/:id", rt.LessonPlans.Update)
	plans.DELETE("/:id", rt.LessonPlans.Delete)
	plans.GET("/:id/print", rt.LessonPlans.Print)

	tutor := secured.Group("/tutor")
	tutorPlans := tutor.Group("/lesson-plans", middleware.Audit(rt.Audit, "tutor_lesson_plan", nil))
	tutorPlans.GET("", rt.TutorLessonPlans.List)
	tutorPlans.POST("", rt.TutorLessonPlans.Create)
	tutorPlans.GET("/:id", rt.TutorLessonPlans.Get)
	tutorPlans.PUT("/:id", rt.TutorLessonPlans.Update)
	tutorPlans.DELETE("/:id", rt.TutorLessonPlans.Delete)
	tutorPlans.GET("/:id/print", rt.TutorLessonPlans.Print)

	tutees := tutor.Group("/students", middleware.Audit(rt.Audit, "tutor_student", nil))
	tutees.GET("", rt.Students.ListTutor)
	tutees.POST("", rt.Students.CreateTutor)
	tutees.GET("/:id", rt.Students.GetTutor)
	tutees.PUT("/:id", rt.Students.UpdateTutor)
	tutees.DELETE("/:id", rt.Students.DeleteTutor)

	students := secured.Group("/students", middleware.Audit(rt.Audit, "student", nil))
	students.GET("", rt.Students.ListTeacher)
	students.POST("", rt.Students.CreateTeacher)
	students.GET("/:id", rt.Students.GetTeacher)
	students.PUT("/:id", rt.Students.UpdateTeacher)
	students.DELETE("/:id", rt.Students.DeleteTeacher)

	classes := secured.Group("/classes", middleware.Audit(rt.Audit, "class", nil))
	classes.GET("", rt.Classes.List)
	classes.POST("", rt.Classes.Create)
	classes.GET("/:id", rt.Classes.Get)
	classes.PUT("/:id", rt.Classes.Update)
	classes.DELETE("/:id", rt.Classes.Delete)
	classes.POST("/:id/students", rt.Classes.AddStudent)
	classes.DELETE("/:id/students/:studentId", rt.Classes.RemoveStudent)

	if rt.Exports != nil {
		exports := secured.Group("/exports")
		exports.POST("", rt.Exports.Create)
		exports.GET("/:id", rt.Exports.Status)
	}

	admin := secured.Group("/admin", middleware.RequireRoles(models.RoleServiceRole))
	admin.GET("/metrics", rt.Metrics.Snapshot)
}

// RegisterProbes mounts the unauthenticated operational endpoints on the root router.
func (rt Routes) RegisterProbes(r *gin.Engine) {
	r.GET("/health", rt.Metrics.Health)
	r.GET("/ready", rt.Metrics.Ready)
	r.GET("/metrics", rt.Metrics.Prometheus)
}
