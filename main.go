package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"stayguide-backend/ai"
	"stayguide-backend/conn"
	"stayguide-backend/guides"
	"stayguide-backend/login"
	"stayguide-backend/migrations"
	"stayguide-backend/plans"
	"stayguide-backend/translate"
)

func main() {
	_ = godotenv.Load(".env")

	db, err := conn.NewMySQL()
	if err != nil {
		log.Fatalf("[main] database: %v", err)
	}
	migrations.Init(db)
	if err := migrations.Migrate(); err != nil {
		log.Fatalf("[main] migrate: %v", err)
	}

	plansRepo := plans.NewRepository(db)
	if err := plansRepo.EnsureDefaultPlans(); err != nil {
		log.Fatalf("[main] seed plans: %v", err)
	}
	stripeSvc := plans.NewStripeFromEnv(plansRepo)
	if stripeSvc == nil {
		log.Printf("[main] stripe disabled (STRIPE_SECRET_KEY unset)")
	}

	guidesRepo := guides.NewRepository(db)
	orch := ai.NewOrchestrator(ai.NewClient())
	cache := translate.New(orch, os.Getenv("GUIDE_SOURCE_LANG"), 0)

	r := gin.Default()

	r.POST("/login", login.Handler)
	r.POST("/register", login.RegisterHandler)
	r.POST("/logout", login.LogoutHandler)

	plans.NewHandler(plansRepo, stripeSvc, login.CurrentUserID).RegisterRoutes(r)
	guides.NewHandler(guidesRepo, plansRepo, login.CurrentUserID).RegisterRoutes(r)
	ai.NewHandler(orch, cache, guides.NewContextSource(guidesRepo), plansRepo, login.CurrentUserID).RegisterRoutes(r)

	r.Run(":8080")
}
