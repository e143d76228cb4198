// Package config defines the application settings filled from command-line
// flags, with environment-variable defaults applied in between (flags win
// over environment, environment wins over built-in defaults).
package config

import (
	"fmt"
	"time"

	"github.com/buger/goreplay/size"
)

// MultiStringOption is a flag.Value that collects every occurrence of a
// repeatable string flag into one slice.
type MultiStringOption struct {
	Params *[]string
}

func (h *MultiStringOption) String() string {
	if h.Params == nil {
		return ""
	}
	return fmt.Sprint(*h.Params)
}

// Set gets called multiple times for each flag with same name
func (h *MultiStringOption) Set(value string) error {
	if h.Params == nil {
		return nil
	}
	*h.Params = append(*h.Params, value)
	return nil
}

// AppSettings holds every option the tcptap binary understands.
type AppSettings struct {
	ExitAfter time.Duration `json:"exit-after"`

	// ######################## proxy ########################
	ListenPort  int    `json:"listen-port" env:"TCPTAP_LISTEN_PORT"`
	Width       int    `json:"width" env:"TCPTAP_WIDTH"`
	Display     string `json:"display" env:"TCPTAP_DISPLAY"`
	Trace       bool   `json:"trace"`
	ClientColor string `json:"client-color" env:"TCPTAP_CLIENT_COLOR"`
	ServerColor string `json:"server-color" env:"TCPTAP_SERVER_COLOR"`

	// ######################## record ########################
	RecordPaths     []string  `json:"record"`
	RecordSizeLimit size.Size `json:"record-size-limit"`

	// mirror capture records to Kafka
	OutputKafkaHost          string `json:"output-kafka-host"`
	OutputKafkaTopic         string `json:"output-kafka-topic"`
	OutputKafkaSASLMechanism string `json:"output-kafka-sasl-mechanism"`
	OutputKafkaSASLUsername  string `json:"output-kafka-sasl-username"`
	OutputKafkaSASLPassword  string `json:"output-kafka-sasl-password"`

	// ######################## replay ########################
	ReplayClientPath string        `json:"replay-client"`
	ReplayServerPath string        `json:"replay-server"`
	ReplaySpeed      float64       `json:"replay-speed"`
	ReplayTimeout    time.Duration `json:"replay-timeout"`
}
