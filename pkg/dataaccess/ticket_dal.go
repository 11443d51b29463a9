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

const ticketDalName = "ticket_dal"

const ticketCollection = "tickets"

type TicketDal interface {
	// SaveTicket saves a ticket.
	SaveTicket(ctx context.Context, ticket *entities.Ticket) error

	// GetTicketByChannel gets the ticket backed by a channel. At most one open
	// ticket exists per channel ID.
	GetTicketByChannel(ctx context.Context, guildID, channelID string) (*entities.Ticket, error)

	// GetLatestTicket gets the most recently created ticket of a guild.
	GetLatestTicket(ctx context.Context, guildID string) (*entities.Ticket, error)

	// ListTickets lists all open tickets.
	ListTickets(ctx context.Context) ([]*entities.Ticket, error)

	// ListTicketsByConfig lists the open tickets of one flow.
	ListTicketsByConfig(ctx context.Context, configID string) ([]*entities.Ticket, error)

	// DeleteTicket removes a ticket row. Only done on close.
	DeleteTicket(ctx context.Context, id string) error
}

type ticketDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTicketDal creates a new ticket data access layer.
func NewTicketDal(logger *slog.Logger) TicketDal {
	l := logger.With(slog.String(logging.KeyDal, ticketDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is nil, this can cause a panic. Proceeding...")
	}

	return &ticketDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *ticketDal) collection() *mongo.Collection {
	return d.client.Database(mongoDatabase).Collection(ticketCollection)
}

func (d *ticketDal) observe(query string) *prometheus.Timer {
	monitoring.MongoTotalRequests.WithLabelValues(ticketDalName, query, mongoDatabase, ticketCollection).Inc()
	return prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketDalName, query, mongoDatabase, ticketCollection))
}

func (d *ticketDal) SaveTicket(ctx context.Context, ticket *entities.Ticket) error {
	t := d.observe("save_ticket")
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx, bson.M{"id": ticket.ID}, bson.M{"$set": ticket}, opts)
	if err != nil {
		return fmt.Errorf("error updating ticket: %w", err)
	}
	return nil
}

func (d *ticketDal) GetTicketByChannel(ctx context.Context, guildID, channelID string) (*entities.Ticket, error) {
	t := d.observe("get_ticket_by_channel")
	defer t.ObserveDuration()

	cursor, err := d.collection().Find(ctx,
		bson.M{"guild_id": guildID, "channel_id": channelID},
		options.Find().SetLimit(2))
	if err != nil {
		return nil, fmt.Errorf("error finding ticket: %w", err)
	}

	var tickets []*entities.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("error decoding tickets: %w", err)
	}

	switch len(tickets) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return tickets[0], nil
	default:
		// The channel uniqueness invariant has been violated, surface it.
		return nil, ErrMultipleFound
	}
}

func (d *ticketDal) GetLatestTicket(ctx context.Context, guildID string) (*entities.Ticket, error) {
	t := d.observe("get_latest_ticket")
	defer t.ObserveDuration()

	opts := options.FindOne().SetSort(bson.M{"number": -1})

	ticket := new(entities.Ticket)
	err := d.collection().FindOne(ctx, bson.M{"guild_id": guildID}, opts).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting latest ticket: %w", err)
	}
	return ticket, nil
}

func (d *ticketDal) ListTickets(ctx context.Context) ([]*entities.Ticket, error) {
	t := d.observe("list_tickets")
	defer t.ObserveDuration()

	cursor, err := d.collection().Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}

	var tickets []*entities.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("error decoding tickets: %w", err)
	}
	return tickets, nil
}

func (d *ticketDal) ListTicketsByConfig(ctx context.Context, configID string) ([]*entities.Ticket, error) {
	t := d.observe("list_tickets_by_config")
	defer t.ObserveDuration()

	cursor, err := d.collection().Find(ctx, bson.M{"config_id": configID})
	if err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}

	var tickets []*entities.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("error decoding tickets: %w", err)
	}
	return tickets, nil
}

func (d *ticketDal) DeleteTicket(ctx context.Context, id string) error {
	t := d.observe("delete_ticket")
	defer t.ObserveDuration()

	if _, err := d.collection().DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return fmt.Errorf("error deleting ticket: %w", err)
	}
	return nil
}
