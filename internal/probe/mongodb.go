package probe

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/uptimer-dev/uptimer/internal/domain/monitor"
)

const defaultMongoTimeout = 10 * time.Second

// MongoProber connects with the monitor's connection string, issues a ping
// and disconnects. The driver error code is surfaced when the server sent
// one, 500 otherwise.
type MongoProber struct{}

func (MongoProber) Probe(ctx context.Context, m *monitor.Monitor) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultMongoTimeout)
	defer cancel()

	start := time.Now()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.URL).SetConnectTimeout(defaultMongoTimeout))
	if err != nil {
		return refused(start, mongoMessage(err), mongoCode(err)), err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return refused(start, mongoMessage(err), mongoCode(err)), err
	}

	return established(start, "MongoDB server running", 200), nil
}

func mongoMessage(err error) string {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Message != "" {
		return cmdErr.Message
	}
	return "MongoDB server connection issue"
}

func mongoCode(err error) int {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code != 0 {
		return int(cmdErr.Code)
	}
	return 500
}
