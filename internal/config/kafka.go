package config

import (
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// getKafkaBrokerURLs returns nil when KAFKA_BROKERS is unset, which disables event publishing.
func getKafkaBrokerURLs() []string {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil
	}
	var urls []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			urls = append(urls, b)
		}
	}
	return urls
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},   // Balancer for selecting partition
		BatchTimeout:           10 * time.Millisecond, // flush each synchronous write promptly
		AllowAutoTopicCreation: true,
	}
}
