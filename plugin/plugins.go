package plugin

import (
	slog "github.com/vearne/simplelog"
	"github.com/vearne/tcptap/config"
)

// NewOutputs builds every configured capture output. A session with no
// outputs records nothing.
func NewOutputs(settings *config.AppSettings) []RecordWriter {
	var outputs []RecordWriter

	for _, path := range settings.RecordPaths {
		slog.Debug("NewFileOutput, path:%v", path)
		out, err := NewFileOutput(path, &FileOutputConfig{SizeLimit: settings.RecordSizeLimit})
		if err != nil {
			slog.Fatal("%v", err)
		}
		outputs = append(outputs, out)
	}

	if settings.OutputKafkaHost != "" {
		cfg := KafkaOutputConfig{
			Host:  settings.OutputKafkaHost,
			Topic: settings.OutputKafkaTopic,
			SASLConfig: SASLKafkaConfig{
				UseSASL:   settings.OutputKafkaSASLUsername != "",
				Mechanism: settings.OutputKafkaSASLMechanism,
				Username:  settings.OutputKafkaSASLUsername,
				Password:  settings.OutputKafkaSASLPassword,
			},
		}
		out, err := NewKafkaOutput(&cfg)
		if err != nil {
			slog.Fatal("%v", err)
		}
		outputs = append(outputs, out)
	}

	return outputs
}
