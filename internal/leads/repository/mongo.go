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

const leadsCollection = "leads"

type leadDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Name      string        `bson:"name"`
	Phone     string        `bson:"phone"`
	PhoneKey  string        `bson:"phoneKey"`
	Documents []string      `bson:"documents"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d leadDocument) toLead() Lead {
	return Lead{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Phone:     d.Phone,
		Documents: nonNilDocuments(d.Documents),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MongoRepository stores leads in a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongo creates a MongoDB lead repository.
func NewMongo(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(leadsCollection)}
}

// EnsureIndexes creates the unique phone index and the list ordering index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phoneKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("leads_phone_unique"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("leads_created_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("create lead indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func (r *MongoRepository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := leadDocument{
		ID:        bson.NewObjectID(),
		Name:      params.Name,
		Phone:     params.Phone,
		PhoneKey:  params.PhoneKey,
		Documents: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Lead{}, ErrDuplicatePhone
		}
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return doc.toLead(), nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Lead, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return Lead{}, ErrNotFound
	}

	var doc leadDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return doc.toLead(), nil
}

func (r *MongoRepository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	filter := buildLeadFilter(params)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(params.Page.Offset())).
		SetLimit(int64(params.Page.Limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer cursor.Close(ctx)

	leads := make([]Lead, 0)
	for cursor.Next(ctx) {
		var doc leadDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode lead: %w", err)
		}
		leads = append(leads, doc.toLead())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}

	return leads, int(total), nil
}

func buildLeadFilter(params ListParams) bson.M {
	if params.Search == "" {
		return bson.M{}
	}
	pattern := query.MongoContains(params.Search)
	return bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"phone": pattern},
		bson.M{"phoneKey": pattern},
	}}
}

func (r *MongoRepository) Update(ctx context.Context, id string, params UpdateLeadParams) (Lead, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if params.Name != nil {
		set["name"] = *params.Name
	}
	if params.Phone != nil {
		set["phone"] = *params.Phone
	}
	if params.PhoneKey != nil {
		set["phoneKey"] = *params.PhoneKey
	}

	lead, err := r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return Lead{}, ErrDuplicatePhone
	}
	return lead, err
}

func (r *MongoRepository) AppendDocument(ctx context.Context, id string, url string) (Lead, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{
		"$push": bson.M{"documents": url},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *MongoRepository) findOneAndUpdate(ctx context.Context, id string, update bson.M) (Lead, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return Lead{}, ErrNotFound
	}

	var doc leadDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return doc.toLead(), nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ LeadsRepository = (*MongoRepository)(nil)
