package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sellersaathi/copilot-api/pkg/logger"
)

var festivalIndexes = []mongo.IndexModel{
	// per-year lookups in calendar order
	{
		Keys: bson.D{
			{Key: "year", Value: 1},
			{Key: "order", Value: 1},
		},
		Options: options.Index().SetName("idx_year_order"),
	},
	{
		Keys: bson.D{
			{Key: "year", Value: 1},
			{Key: "month", Value: 1},
			{Key: "name", Value: 1},
		},
		Options: options.Index().SetName("idx_year_month_name"),
	},
}

// EnsureIndexes creates the festival collection indexes. Creating an index
// that already exists is a no-op.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	names, err := coll.Indexes().CreateMany(ctx, festivalIndexes)
	if err != nil {
		return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
	}
	logger.FromContext(ctx).Info().Strs("indexes", names).Str("collection", coll.Name()).Msg("indexes ensured")
	return nil
}
