package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sellersaathi/copilot-api/pkg/festival"
	"github.com/sellersaathi/copilot-api/pkg/models"
)

// RecordStore reads and writes festival documents for one year.
type RecordStore interface {
	FindYear(ctx context.Context, year int) ([]models.FestivalRecord, error)
	ReplaceYear(ctx context.Context, year int, records []models.FestivalRecord) (int, error)
}

// CollectionStore is the MongoDB RecordStore.
type CollectionStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewCollectionStore(coll *mongo.Collection) *CollectionStore {
	return &CollectionStore{coll: coll, timeout: 10 * time.Second}
}

func (s *CollectionStore) FindYear(ctx context.Context, year int) ([]models.FestivalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.D{{Key: "year", Value: year}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.FestivalRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ReplaceYear swaps a year's documents for records.
func (s *CollectionStore) ReplaceYear(ctx context.Context, year int, records []models.FestivalRecord) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.coll.DeleteMany(ctx, bson.D{{Key: "year", Value: year}}); err != nil {
		return 0, fmt.Errorf("delete festivals for %d: %w", year, err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = r
	}
	res, err := s.coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert festivals for %d: %w", year, err)
	}
	return len(res.InsertedIDs), nil
}

// FestivalSource serves festival.YearData from a RecordStore.
type FestivalSource struct {
	store RecordStore
}

func NewFestivalSource(store RecordStore) *FestivalSource {
	return &FestivalSource{store: store}
}

func (f *FestivalSource) Name() string {
	return "mongo"
}

func (f *FestivalSource) FestivalsForYear(ctx context.Context, year int) (festival.YearData, error) {
	records, err := f.store.FindYear(ctx, year)
	if err != nil {
		return nil, &festival.SourceError{Source: f.Name(), Year: year, Err: err}
	}
	if len(records) == 0 {
		return nil, &festival.SourceError{Source: f.Name(), Year: year, Err: fmt.Errorf("no festivals stored for %d", year)}
	}

	data := festival.YearData{}
	for _, r := range records {
		data[r.Month] = append(data[r.Month], festival.RawFestival{
			Name: r.Name,
			Date: festival.DayFromAny(r.Date),
		})
	}
	return data, nil
}

// RecordsFromYearData flattens YearData into documents, keeping calendar
// order in the order field.
func RecordsFromYearData(year int, data festival.YearData) []models.FestivalRecord {
	var records []models.FestivalRecord
	for m := time.January; m <= time.December; m++ {
		for _, raw := range data[m.String()] {
			if raw.Problem != "" {
				continue
			}
			records = append(records, models.FestivalRecord{
				Year:  year,
				Month: m.String(),
				Name:  raw.Name,
				Date:  string(raw.Date),
				Order: len(records) + 1,
			})
		}
	}
	return records
}
