package container

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/samber/do"
	"github.com/serroba/link-registry/internal/analytics"
	analyticsstore "github.com/serroba/link-registry/internal/analytics/store"
	"github.com/serroba/link-registry/internal/handlers"
	"github.com/serroba/link-registry/internal/messaging"
	"go.uber.org/zap"
)

// AnalyticsConsumerGroup is the redis stream consumer group reading analytics events.
const AnalyticsConsumerGroup = "analytics"

// InProcess is the in-memory pub/sub used when Options.Events is "memory".
type InProcess struct {
	*gochannel.GoChannel
}

// Shutdown closes the channel and every subscription on it.
func (p *InProcess) Shutdown() error {
	return p.Close()
}

// PublisherGroupPackage provides the analytics publishers. With events disabled
// every publish is dropped and no watermill publisher is created.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*InProcess, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		return &InProcess{GoChannel: gochannel.NewGoChannel(gochannel.Config{}, messaging.NewZapLogger(logger))}, nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		switch opts.Events {
		case EventsRedis:
			client := do.MustInvoke[*Redis](i)

			publisher, err := redisstream.NewPublisher(
				redisstream.PublisherConfig{
					Client:     client.Client,
					Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
				},
				messaging.NewZapLogger(logger),
			)
			if err != nil {
				return nil, fmt.Errorf("creating redis stream publisher: %w", err)
			}

			return messaging.NewPublisherGroup(publisher), nil
		case EventsMemory:
			return messaging.NewPublisherGroup(do.MustInvoke[*InProcess](i).GoChannel), nil
		default:
			return nil, fmt.Errorf("events %q have no publisher", opts.Events)
		}
	})

	do.Provide(injector, func(i *do.Injector) (handlers.Publishers, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.Events == EventsNone || opts.Events == "" {
			return handlers.NopPublishers(), nil
		}

		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return handlers.Publishers{}, err
		}

		publisher := group.Publisher()

		return handlers.Publishers{
			EntryCreated:  messaging.NewPublishFunc[analytics.EntryCreatedEvent](publisher, analytics.TopicEntryCreated),
			EntryClicked:  messaging.NewPublishFunc[analytics.EntryClickedEvent](publisher, analytics.TopicEntryClicked),
			EntriesPurged: messaging.NewPublishFunc[analytics.EntriesPurgedEvent](publisher, analytics.TopicEntriesPurged),
		}, nil
	})
}

// ConsumerGroupPackage provides the analytics consumers feeding the analytics store.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (analytics.Store, error) {
		return analyticsstore.NewNoop(do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		sink := do.MustInvoke[analytics.Store](i)

		var subscriber message.Subscriber

		switch opts.Events {
		case EventsRedis:
			client := do.MustInvoke[*Redis](i)

			sub, err := redisstream.NewSubscriber(
				redisstream.SubscriberConfig{
					Client:        client.Client,
					Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
					ConsumerGroup: AnalyticsConsumerGroup,
				},
				messaging.NewZapLogger(logger),
			)
			if err != nil {
				return nil, fmt.Errorf("creating redis stream subscriber: %w", err)
			}

			subscriber = sub
		case EventsMemory:
			subscriber = do.MustInvoke[*InProcess](i).GoChannel
		default:
			return nil, fmt.Errorf("events %q have no subscriber", opts.Events)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicEntryCreated, sink.SaveEntryCreated, logger))
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicEntryClicked, sink.SaveEntryClicked, logger))
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicEntriesPurged, sink.SaveEntriesPurged, logger))

		return group, nil
	})
}
