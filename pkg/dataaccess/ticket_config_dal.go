package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gearsandcogs/tick/pkg/dataaccess/monitoring"
	"github.com/gearsandcogs/tick/pkg/entities"
	"github.com/gearsandcogs/tick/pkg/logging"
)

const ticketConfigDalName = "ticket_config_dal"

const ticketConfigCollection = "ticket_configs"

type TicketConfigDal interface {
	// SaveTicketConfig saves a ticket flow.
	SaveTicketConfig(ctx context.Context, config *entities.TicketConfig) error

	// GetTicketConfig gets a flow by (guild, name).
	GetTicketConfig(ctx context.Context, guildID, name string) (*entities.TicketConfig, error)

	// GetTicketConfigByEmoji gets a flow by (guild, trigger emoji).
	GetTicketConfigByEmoji(ctx context.Context, guildID, emojiID string) (*entities.TicketConfig, error)

	// GetTicketConfigByID gets a flow by its ID.
	GetTicketConfigByID(ctx context.Context, id string) (*entities.TicketConfig, error)

	// ListTicketConfigs lists all flows for a guild.
	ListTicketConfigs(ctx context.Context, guildID string) ([]*entities.TicketConfig, error)

	// PrefixInUse reports whether another flow of the guild already uses the prefix.
	PrefixInUse(ctx context.Context, guildID, prefix, excludeID string) (bool, error)

	// EmojiInUse reports whether another flow of the guild already uses the emoji.
	EmojiInUse(ctx context.Context, guildID, emojiID, excludeID string) (bool, error)

	// DeleteTicketConfig removes a flow.
	DeleteTicketConfig(ctx context.Context, id string) error
}

type ticketConfigDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTicketConfigDal creates a new ticket flow data access layer.
func NewTicketConfigDal(logger *slog.Logger) TicketConfigDal {
	l := logger.With(slog.String(logging.KeyDal, ticketConfigDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &ticketConfigDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *ticketConfigDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(ticketConfigCollection)
}

func (d *ticketConfigDal) observe(query string) *prometheus.Timer {
	monitoring.MongoTotalRequests.WithLabelValues(ticketConfigDalName, query, mongoDatabase, ticketConfigCollection).Inc()
	return prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketConfigDalName, query, mongoDatabase, ticketConfigCollection))
}

func (d *ticketConfigDal) SaveTicketConfig(ctx context.Context, config *entities.TicketConfig) error {
	t := d.observe("save_ticket_config")
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx, bson.M{"id": config.ID}, bson.M{"$set": config}, opts)
	if err != nil {
		return fmt.Errorf("error updating ticket config: %w", err)
	}
	return nil
}

// findOne resolves a filter that must match exactly one flow. Mongo only
// distinguishes "none found", so a two document find detects ambiguity.
func (d *ticketConfigDal) findOne(ctx context.Context, filter bson.M) (*entities.TicketConfig, error) {
	cursor, err := d.collection().Find(ctx, filter, options.Find().SetLimit(2))
	if err != nil {
		return nil, fmt.Errorf("error finding ticket config: %w", err)
	}

	var configs []*entities.TicketConfig
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, fmt.Errorf("error decoding ticket configs: %w", err)
	}

	switch len(configs) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return configs[0], nil
	default:
		return nil, ErrMultipleFound
	}
}

func (d *ticketConfigDal) GetTicketConfig(ctx context.Context, guildID, name string) (*entities.TicketConfig, error) {
	t := d.observe("get_ticket_config")
	defer t.ObserveDuration()

	return d.findOne(ctx, bson.M{"guild_id": guildID, "name": name})
}

func (d *ticketConfigDal) GetTicketConfigByEmoji(ctx context.Context, guildID, emojiID string) (*entities.TicketConfig, error) {
	t := d.observe("get_ticket_config_by_emoji")
	defer t.ObserveDuration()

	return d.findOne(ctx, bson.M{"guild_id": guildID, "emoji_id": emojiID})
}

func (d *ticketConfigDal) GetTicketConfigByID(ctx context.Context, id string) (*entities.TicketConfig, error) {
	t := d.observe("get_ticket_config_by_id")
	defer t.ObserveDuration()

	config := new(entities.TicketConfig)
	err := d.collection().FindOne(ctx, bson.M{"id": id}).Decode(config)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket config: %w", err)
	}
	return config, nil
}

func (d *ticketConfigDal) ListTicketConfigs(ctx context.Context, guildID string) ([]*entities.TicketConfig, error) {
	t := d.observe("list_ticket_configs")
	defer t.ObserveDuration()

	cursor, err := d.collection().Find(ctx, bson.M{"guild_id": guildID}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, fmt.Errorf("error listing ticket configs: %w", err)
	}

	var configs []*entities.TicketConfig
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, fmt.Errorf("error decoding ticket configs: %w", err)
	}
	return configs, nil
}

func (d *ticketConfigDal) PrefixInUse(ctx context.Context, guildID, prefix, excludeID string) (bool, error) {
	t := d.observe("prefix_in_use")
	defer t.ObserveDuration()

	return d.inUse(ctx, bson.M{"guild_id": guildID, "prefix": prefix, "id": bson.M{"$ne": excludeID}})
}

func (d *ticketConfigDal) EmojiInUse(ctx context.Context, guildID, emojiID, excludeID string) (bool, error) {
	t := d.observe("emoji_in_use")
	defer t.ObserveDuration()

	return d.inUse(ctx, bson.M{"guild_id": guildID, "emoji_id": emojiID, "id": bson.M{"$ne": excludeID}})
}

func (d *ticketConfigDal) inUse(ctx context.Context, filter bson.M) (bool, error) {
	count, err := d.collection().CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error counting ticket configs: %w", err)
	}
	return count > 0, nil
}

func (d *ticketConfigDal) DeleteTicketConfig(ctx context.Context, id string) error {
	t := d.observe("delete_ticket_config")
	defer t.ObserveDuration()

	if _, err := d.collection().DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return fmt.Errorf("error deleting ticket config: %w", err)
	}
	return nil
}
