package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/clinicflow/clinicflow/internal/consumer"
	"github.com/clinicflow/clinicflow/internal/inbox"
	"github.com/clinicflow/clinicflow/internal/notifications"
	"github.com/clinicflow/clinicflow/internal/outbox"
	"github.com/clinicflow/clinicflow/libs/config"
	"github.com/clinicflow/clinicflow/libs/db"
	otelx "github.com/clinicflow/clinicflow/libs/otel"
	"github.com/clinicflow/clinicflow/libs/runtime"
)

type appointmentEvent struct {
	AppointmentID string  `json:"appointment_id"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	CenterID      *string `json:"center_id"`
	PatientName   string  `json:"patient_name"`
	PatientPhone  string  `json:"patient_phone"`
	Service       string  `json:"service"`
}

func main() {
	service := config.String("SERVICE_NAME", "notify-worker")
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	notifRepo := notifications.NewRepository(pool)
	inboxRepo := inbox.NewRepository(pool)

	var sender notifications.Sender
	deskEmail := config.String("DESK_EMAIL", "")
	if host := config.String("SMTP_HOST", ""); host != "" && deskEmail != "" {
		sender = notifications.NewSMTPSender(host, config.String("SMTP_PORT", "1025"), config.String("SMTP_FROM", ""))
	}

	handle := func(subject func(appointmentEvent) string) consumer.Handler {
		return func(ctx context.Context, msg kafka.Message) error {
			var evt appointmentEvent
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
				return nil
			}
			if evt.AppointmentID == "" {
				logger.Error("missing appointment_id", "topic", msg.Topic)
				return nil
			}

			status := "recorded"
			if sender != nil {
				body := fmt.Sprintf("%s %s — %s (%s)", evt.Date, evt.Time, evt.PatientName, evt.Service)
				if err := sender.Send(deskEmail, subject(evt), body); err != nil {
					logger.Error("email send failed", "err", err, "appointment_id", evt.AppointmentID)
					status = "send_failed"
				} else {
					status = "sent"
				}
			}

			return notifRepo.Insert(ctx, notifications.Notification{
				AppointmentID: evt.AppointmentID,
				Channel:       "email",
				Recipient:     deskEmail,
				Payload:       msg.Value,
				Status:        status,
			})
		}
	}

	startConsumer := func(topic string, subject func(appointmentEvent) string) {
		cfg := consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "notify-worker"),
			Topic:   topic,
		}
		go consumer.New(logger, inboxRepo, cfg, handle(subject)).Run(ctx)
	}

	startConsumer(outbox.EventAppointmentBooked, func(evt appointmentEvent) string {
		return "New appointment " + evt.Date + " " + evt.Time
	})
	startConsumer(outbox.EventAppointmentCancelled, func(evt appointmentEvent) string {
		return "Cancelled appointment " + evt.Date + " " + evt.Time
	})

	logger.Info("notify worker started", "desk_email", maskEmpty(deskEmail))
	<-ctx.Done()
	logger.Info("notify worker stopped")
}

func maskEmpty(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
