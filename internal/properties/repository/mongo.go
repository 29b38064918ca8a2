package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estate_crm_backend/internal/shared/query"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const propertiesCollection = "properties"

type propertyDocument struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Type         string        `bson:"type"`
	Size         string        `bson:"size"`
	Location     string        `bson:"location"`
	Budget       float64       `bson:"budget"`
	Availability bool          `bson:"availability"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func (d propertyDocument) toProperty() Property {
	return Property{
		ID:           d.ID.Hex(),
		Type:         d.Type,
		Size:         d.Size,
		Location:     d.Location,
		Budget:       d.Budget,
		Availability: d.Availability,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoRepository stores properties in a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongo creates a MongoDB property repository.
func NewMongo(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(propertiesCollection)}
}

// EnsureIndexes creates the list ordering index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName("properties_created_at"),
	})
	if err != nil {
		return fmt.Errorf("create property indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func (r *MongoRepository) Create(ctx context.Context, params CreatePropertyParams) (Property, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := propertyDocument{
		ID:           bson.NewObjectID(),
		Type:         params.Type,
		Size:         params.Size,
		Location:     params.Location,
		Budget:       params.Budget,
		Availability: params.Availability,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return Property{}, fmt.Errorf("insert property: %w", err)
	}
	return doc.toProperty(), nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Property, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return Property{}, ErrNotFound
	}

	var doc propertyDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Property{}, ErrNotFound
	}
	if err != nil {
		return Property{}, fmt.Errorf("get property: %w", err)
	}
	return doc.toProperty(), nil
}

func (r *MongoRepository) List(ctx context.Context, params ListParams) ([]Property, int, error) {
	filter := buildPropertyFilter(params)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count properties: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(params.Page.Offset())).
		SetLimit(int64(params.Page.Limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list properties: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []propertyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode properties: %w", err)
	}

	properties := make([]Property, 0, len(docs))
	for _, doc := range docs {
		properties = append(properties, doc.toProperty())
	}
	return properties, int(total), nil
}

func buildPropertyFilter(params ListParams) bson.M {
	if params.Location == "" {
		return bson.M{}
	}
	return bson.M{"location": query.MongoContains(params.Location)}
}

func (r *MongoRepository) Update(ctx context.Context, id string, params UpdatePropertyParams) (Property, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return Property{}, ErrNotFound
	}

	var doc propertyDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": buildPropertySet(params, time.Now().UTC())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Property{}, ErrNotFound
	}
	if err != nil {
		return Property{}, fmt.Errorf("update property: %w", err)
	}
	return doc.toProperty(), nil
}

func buildPropertySet(params UpdatePropertyParams, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if params.Type != nil {
		set["type"] = *params.Type
	}
	if params.Size != nil {
		set["size"] = *params.Size
	}
	if params.Location != nil {
		set["location"] = *params.Location
	}
	if params.Budget != nil {
		set["budget"] = *params.Budget
	}
	if params.Availability != nil {
		set["availability"] = *params.Availability
	}
	return set
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ PropertiesRepository = (*MongoRepository)(nil)
