package plugin

import (
	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	"github.com/vearne/tcptap/protocol"
)

// KafkaOutputConfig is the representation of kafka output configuration
type KafkaOutputConfig struct {
	Host       string `json:"output-kafka-host"`
	Topic      string `json:"output-kafka-topic"`
	SASLConfig SASLKafkaConfig
}

// SASLKafkaConfig SASL configuration
type SASLKafkaConfig struct {
	UseSASL   bool   `json:"output-kafka-use-sasl"`
	Mechanism string `json:"output-kafka-mechanism"`
	Username  string `json:"output-kafka-username"`
	Password  string `json:"output-kafka-password"`
}

// KafkaOutput mirrors every serialized capture record to a Kafka topic so
// recordings can be collected away from the machine running the tap.
type KafkaOutput struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaOutput(config *KafkaOutputConfig) (*KafkaOutput, error) {
	c := sarama.NewConfig()
	c.Producer.Return.Successes = true
	if config.SASLConfig.UseSASL {
		c.Net.SASL.Enable = true
		c.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		if config.SASLConfig.Mechanism != "" {
			c.Net.SASL.Mechanism = sarama.SASLMechanism(config.SASLConfig.Mechanism)
		}
		c.Net.SASL.User = config.SASLConfig.Username
		c.Net.SASL.Password = config.SASLConfig.Password
	}
	producer, err := sarama.NewSyncProducer([]string{config.Host}, c)
	if err != nil {
		return nil, errors.Wrapf(err, "create kafka producer for %q", config.Host)
	}
	return &KafkaOutput{producer: producer, topic: config.Topic}, nil
}

func (o *KafkaOutput) WriteRecord(r *protocol.Record) error {
	data, err := protocol.Marshal(r)
	if err != nil {
		return err
	}
	_, _, err = o.producer.SendMessage(&sarama.ProducerMessage{
		Topic: o.topic,
		Value: sarama.ByteEncoder(data),
	})
	return errors.Wrap(err, "kafka send")
}

func (o *KafkaOutput) Close() error {
	return o.producer.Close()
}
