package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutbudev/crud-docs/pkg/repository"
	"github.com/kutbudev/crud-docs/pkg/service"
)

func TestPublisherSendsEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event service.Event
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.Type != service.EventCrudCreated || event.ID != 1 {
			return fmt.Errorf("unexpected event %+v", event)
		}
		return nil
	})

	publisher := NewPublisher(producer, "crud-events", nil)
	publisher.OnEvent(context.Background(), service.Event{
		Type:       service.EventCrudCreated,
		ID:         1,
		OccurredAt: time.Now(),
	})

	require.NoError(t, publisher.Close())
}

func TestPublisherSwallowsSendErrors(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewPublisher(producer, "crud-events", nil)
	assert.NotPanics(t, func() {
		publisher.OnEvent(context.Background(), service.Event{Type: service.EventCrudDeleted, ID: 2})
	})
	require.NoError(t, publisher.Close())
}

func TestPublisherAsServiceListener(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndSucceed() // tag.created
	producer.ExpectSendMessageAndSucceed() // crud.created

	publisher := NewPublisher(producer, "crud-events", nil)
	svc := service.NewService(repository.NewMemoryRepository(), service.WithListener(publisher))

	ctx := context.Background()
	tag, err := svc.CreateTag(ctx, "GET")
	require.NoError(t, err)
	_, err = svc.Create(ctx, service.CreateInput{Title: "t", Body: "b", TagIDs: []uint{tag.ID}})
	require.NoError(t, err)

	require.NoError(t, publisher.Close())
}

func TestEntityReference(t *testing.T) {
	assert.Equal(t, "crud:4", entityReference(service.Event{Type: service.EventCrudUpdated, ID: 4}))
	assert.Equal(t, "tag:9", entityReference(service.Event{Type: service.EventTagCreated, ID: 9}))
}
