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

const guildConfigDalName = "guild_config_dal"

type GuildConfigDal interface {
	// SaveGuildConfig saves a guild configuration.
	SaveGuildConfig(ctx context.Context, config *entities.GuildConfig) error

	// GetGuildConfig gets the guild configuration for a guild ID.
	GetGuildConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error)
}

type guildConfigDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewGuildConfigDal creates a new guild configuration data access layer.
func NewGuildConfigDal(logger *slog.Logger) GuildConfigDal {
	l := logger.With(slog.String(logging.KeyDal, guildConfigDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &guildConfigDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *guildConfigDal) SaveGuildConfig(ctx context.Context, config *entities.GuildConfig) error {
	collection := d.client.Database(mongoDatabase).Collection("guild_configs")

	monitoring.MongoTotalRequests.WithLabelValues(guildConfigDalName, "save_guild_config", mongoDatabase, "guild_configs").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(guildConfigDalName, "save_guild_config", mongoDatabase, "guild_configs"))
	defer t.ObserveDuration()

	// One document per guild id, upserted in place.
	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, bson.M{"id": config.ID}, bson.M{"$set": config}, opts)
	if err != nil {
		return fmt.Errorf("error updating guild config: %w", err)
	}
	return nil
}

func (d *guildConfigDal) GetGuildConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	collection := d.client.Database(mongoDatabase).Collection("guild_configs")

	monitoring.MongoTotalRequests.WithLabelValues(guildConfigDalName, "get_guild_config", mongoDatabase, "guild_configs").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(guildConfigDalName, "get_guild_config", mongoDatabase, "guild_configs"))
	defer t.ObserveDuration()

	config := new(entities.GuildConfig)
	err := collection.FindOne(ctx, bson.M{"id": guildID}).Decode(config)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}
	return config, nil
}
