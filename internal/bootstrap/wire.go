package bootstrap

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"medcockpit/internal/audio"
	"medcockpit/internal/config"
	"medcockpit/internal/gateway"
	"medcockpit/internal/observability/metrics"
	"medcockpit/internal/ports"
	"medcockpit/internal/providers/emr"
	"medcockpit/internal/providers/voxtral"
	"medcockpit/internal/queue"
	"medcockpit/internal/usecase"
	"medcockpit/pkg/logging"
)

// Services holds the wired application graph.
type Services struct {
	Logger     *logging.Logger
	Hub        *gateway.Hub
	Controller *usecase.EncounterController
	Patients   *queue.Repository
	Router     http.Handler
}

// Build wires configuration into the full service graph. Events flow through
// the metrics sink and then out over the websocket hub.
func Build(cfg config.Config) (*Services, error) {
	logger := logging.New(cfg.LogLevel)

	hub := gateway.NewHub(logger)
	sink := metrics.NewSink(hub, metrics.NewEncounterMetrics(prometheus.DefaultRegisterer))

	records := emr.NewClient(emr.Config{
		BaseURL: cfg.Records.BaseURL,
		APIKey:  cfg.Records.APIKey,
		Timeout: cfg.Records.Timeout,
	}, emr.WithLogger(logger))

	transcriber := voxtral.NewTranscriber(voxtral.Config{
		APIKey:   cfg.Transcription.APIKey,
		BaseURL:  cfg.Transcription.BaseURL,
		Model:    cfg.Transcription.Model,
		Language: cfg.Transcription.Language,
	})

	capture := audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand)

	controller := usecase.NewEncounterController(records, transcriber, capture, sink, usecase.Config{
		Recorder: usecase.RecorderConfig{
			Audio: ports.AudioConfig{
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
			},
			ChunkBytes: cfg.Session.ChunkBytes,
			Demo:       cfg.Session.DemoMode,
		},
	})

	patients := queue.NewRepository()
	handler := gateway.NewHandler(controller, patients, logger, cfg.Session.SavedFlash)

	return &Services{
		Logger:     logger,
		Hub:        hub,
		Controller: controller,
		Patients:   patients,
		Router:     gateway.NewRouter(handler, hub, logger),
	}, nil
}
