package msk

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-lambda-go/events"
	"github.com/example/ec-order-engine/internal/infrastructure/kafka"
	"go.uber.org/zap"
)

// DecodeRecord extracts the key and value of an MSK record. Lambda delivers both base64 encoded.
func DecodeRecord(record events.KafkaRecord) (key, value []byte, err error) {
	if record.Key != "" {
		key, err = base64.StdEncoding.DecodeString(record.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("decode key: %w", err)
		}
	}
	value, err = base64.StdEncoding.DecodeString(record.Value)
	if err != nil {
		return nil, nil, fmt.Errorf("decode value: %w", err)
	}
	if len(value) == 0 {
		return nil, nil, errors.New("empty record value")
	}
	return key, value, nil
}

// Dispatch feeds every record of the batch to handler in partition and offset order.
// Undecodable records are logged and skipped. Handler failures are joined into the returned
// error so the whole batch is redelivered.
func Dispatch(ctx context.Context, event events.KafkaEvent, handler kafka.MessageHandler, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	partitions := make([]string, 0, len(event.Records))
	for p := range event.Records {
		partitions = append(partitions, p)
	}
	sort.Strings(partitions)

	var (
		processed int
		errs      []error
	)
	for _, p := range partitions {
		for _, record := range event.Records[p] {
			log := logger.With(
				zap.String("topic", record.Topic),
				zap.Int64("partition", record.Partition),
				zap.Int64("offset", record.Offset),
			)

			key, value, err := DecodeRecord(record)
			if err != nil {
				log.Warn("msk_record_skipped", zap.Error(err))
				continue
			}

			if err := handler(ctx, key, value); err != nil {
				log.Error("msk_record_failed", zap.Error(err))
				errs = append(errs, fmt.Errorf("%s@%d: %w", p, record.Offset, err))
				continue
			}
			processed++
		}
	}
	return processed, errors.Join(errs...)
}
