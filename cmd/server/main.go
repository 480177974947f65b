package main

import (
	appointmenthandler "medbook/internal/appointments/handler"
	appointmentrepo "medbook/internal/appointments/repository"
	appointmentservice "medbook/internal/appointments/service"
	appointmentvalidator "medbook/internal/appointments/validator"
	availabilityhandler "medbook/internal/availability/handler"
	availabilityrepo "medbook/internal/availability/repository"
	availabilityservice "medbook/internal/availability/service"
	availabilityvalidator "medbook/internal/availability/validator"
	dashboardhandler "medbook/internal/dashboard/handler"
	dashboardservice "medbook/internal/dashboard/service"
	doctorhandler "medbook/internal/doctors/handler"
	doctorrepo "medbook/internal/doctors/repository"
	doctorservice "medbook/internal/doctors/service"
	"medbook/internal/events"
	healthhandler "medbook/internal/health/handler"
	"medbook/pkg/app"
	"medbook/pkg/config"
	"medbook/pkg/kafka"
	kafka_config "medbook/pkg/kafka/config"
)

func main() {
	cfg := config.Load("medbook")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	publisher := buildPublisher(cfg)

	appointmentRepo := appointmentrepo.NewMongoAppointmentRepository(cfg)
	slotLockRepo := appointmentrepo.NewMongoSlotLockRepository(cfg)
	availabilityRepo := availabilityrepo.NewMongoAvailabilityRepository(cfg)
	doctorRepo := doctorrepo.NewMongoDoctorRepository(cfg)

	availabilitySvc := availabilityservice.NewAvailabilityService(
		availabilityRepo,
		appointmentRepo,
		availabilityvalidator.NewAvailabilityValidator(cfg.Log),
		cfg,
	)
	bookingSvc := appointmentservice.NewBookingService(
		appointmentRepo,
		slotLockRepo,
		availabilitySvc,
		doctorRepo,
		publisher,
		appointmentvalidator.NewAppointmentValidator(cfg.Log),
		cfg,
	)
	lifecycleSvc := appointmentservice.NewLifecycleService(appointmentRepo, availabilitySvc, publisher, cfg)
	doctorSvc := doctorservice.NewDoctorService(doctorRepo, publisher, cfg)
	dashboardSvc := dashboardservice.NewDashboardService(appointmentRepo, doctorRepo, availabilitySvc, cfg)

	application := app.NewApplication(cfg)
	application.SetApp(
		healthhandler.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(availabilitySvc, cfg.Log),
		appointmenthandler.NewAppointmentHandler(bookingSvc, lifecycleSvc, cfg.Log),
		doctorhandler.NewDoctorHandler(doctorSvc, cfg.Log),
		dashboardhandler.NewDashboardHandler(dashboardSvc, cfg.Log),
	)
	application.Run()
}

// buildPublisher wires the Kafka producer, or a no-op publisher when event
// publishing is disabled. A broker that is down at startup is fatal only here;
// at runtime publish failures are logged and absorbed.
func buildPublisher(cfg *config.Config) events.Publisher {
	kafkaCfg := kafka_config.Load()
	if !kafkaCfg.Enabled {
		cfg.Log.Info("Event publishing disabled")
		return events.NoopPublisher{}
	}

	producer, err := kafka.NewProducer(kafkaCfg)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	cfg.Log.Info("Kafka producer ready", "topic", kafkaCfg.Topic, "brokers", kafkaCfg.Brokers)
	return events.NewKafkaPublisher(producer, cfg.Log)
}
