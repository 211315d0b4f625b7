package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/cppla/contactbox/models"
)

const (
	entriesCollection = "entries"
	imagesCollection  = "images"
)

var byCreatedAt = bson.D{{Key: "createdAt", Value: 1}}

// MongoEntryRepository keeps entries in the "entries" collection.
type MongoEntryRepository struct {
	coll *mongo.Collection
}

// NewMongoEntryRepository creates a repository over db.
func NewMongoEntryRepository(db *mongo.Database) *MongoEntryRepository {
	return &MongoEntryRepository{coll: db.Collection(entriesCollection)}
}

func (r *MongoEntryRepository) Create(ctx context.Context, e *models.Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, e)
	return err
}

func (r *MongoEntryRepository) List(ctx context.Context) ([]models.Entry, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(byCreatedAt))
	if err != nil {
		return nil, err
	}
	entries := []models.Entry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *MongoEntryRepository) Get(ctx context.Context, id string) (*models.Entry, error) {
	var entry models.Entry
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&entry); err != nil {
		return nil, mongoNotFound(err)
	}
	return &entry, nil
}

func (r *MongoEntryRepository) Update(ctx context.Context, id string, patch models.EntryPatch) (*models.Entry, error) {
	if len(patch.Columns()) == 0 {
		return r.Get(ctx, id)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var entry models.Entry
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, patchUpdate(patch, time.Now().UTC()), opts).Decode(&entry)
	if err != nil {
		return nil, mongoNotFound(err)
	}
	return &entry, nil
}

func (r *MongoEntryRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

// MongoImageRepository keeps image records in the "images" collection.
type MongoImageRepository struct {
	coll *mongo.Collection
}

// NewMongoImageRepository creates a repository over db.
func NewMongoImageRepository(db *mongo.Database) *MongoImageRepository {
	return &MongoImageRepository{coll: db.Collection(imagesCollection)}
}

func (r *MongoImageRepository) Create(ctx context.Context, img *models.Image) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}
	_, err := r.coll.InsertOne(ctx, img)
	return err
}

func (r *MongoImageRepository) List(ctx context.Context) ([]models.Image, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(byCreatedAt))
	if err != nil {
		return nil, err
	}
	images := []models.Image{}
	if err := cur.All(ctx, &images); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *MongoImageRepository) Get(ctx context.Context, id string) (*models.Image, error) {
	var img models.Image
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&img); err != nil {
		return nil, mongoNotFound(err)
	}
	return &img, nil
}

func (r *MongoImageRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

// patchUpdate builds the $set document for patch, always refreshing updatedAt.
func patchUpdate(patch models.EntryPatch, now time.Time) bson.D {
	set := bson.D{}
	for _, f := range []struct {
		key string
		val *string
	}{
		{"name", patch.Name},
		{"phone", patch.Phone},
		{"email", patch.Email},
		{"place", patch.Place},
		{"message", patch.Message},
	} {
		if f.val != nil {
			set = append(set, bson.E{Key: f.key, Value: *f.val})
		}
	}
	set = append(set, bson.E{Key: "updatedAt", Value: now})
	return bson.D{{Key: "$set", Value: set}}
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mongoNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
