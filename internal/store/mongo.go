package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Mongo implements Store over a MongoDB database. The client is constructed
// once at startup and injected into the route layer; there is no ambient
// global connection.
type Mongo struct {
	client    *mongo.Client
	tools     *mongo.Collection
	reviews   *mongo.Collection
	users     *mongo.Collection
	purchases *mongo.Collection
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})

// NewMongo connects to MongoDB and verifies the connection with a ping
// before any request traffic is served.
func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(dbName)
	return &Mongo{
		client:    client,
		tools:     db.Collection("tools"),
		reviews:   db.Collection("reviews"),
		users:     db.Collection("users"),
		purchases: db.Collection("purchases"),
	}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) InsertTool(ctx context.Context, tool Tool) (InsertResult, error) {
	res, err := m.tools.InsertOne(ctx, tool)
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert tool: %w", err)
	}
	return insertResult(res), nil
}

func (m *Mongo) GetTool(ctx context.Context, id string) (*Tool, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var tool Tool
	err = m.tools.FindOne(ctx, bson.M{"_id": oid}).Decode(&tool)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tool: %w", err)
	}
	return &tool, nil
}

func (m *Mongo) ListTools(ctx context.Context) ([]Tool, error) {
	return listAll[Tool](ctx, m.tools, nil)
}

func (m *Mongo) ListToolsNewestFirst(ctx context.Context) ([]Tool, error) {
	return listAll[Tool](ctx, m.tools, newestFirst)
}

func (m *Mongo) DeleteTool(ctx context.Context, id string) (DeleteResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return DeleteResult{}, err
	}
	res, err := m.tools.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete tool: %w", err)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (m *Mongo) InsertReview(ctx context.Context, review Review) (InsertResult, error) {
	res, err := m.reviews.InsertOne(ctx, review)
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert review: %w", err)
	}
	return insertResult(res), nil
}

func (m *Mongo) ListReviewsNewestFirst(ctx context.Context) ([]Review, error) {
	return listAll[Review](ctx, m.reviews, newestFirst)
}

func (m *Mongo) UpsertUserByEmail(ctx context.Context, email string, profile UserProfile) (UpdateResult, error) {
	set := profileSetDoc(profile)
	set["email"] = email
	res, err := m.users.UpdateOne(ctx, bson.M{"email": email},
		bson.M{"$set": set}, options.Update().SetUpsert(true))
	if err != nil {
		return UpdateResult{}, fmt.Errorf("upsert user: %w", err)
	}
	return updateResult(res), nil
}

func (m *Mongo) PatchUserByEmail(ctx context.Context, email string, profile UserProfile) (UpdateResult, error) {
	set := profileSetDoc(profile)
	if len(set) == 0 {
		return UpdateResult{Acknowledged: true}, nil
	}
	res, err := m.users.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": set})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("patch user: %w", err)
	}
	return updateResult(res), nil
}

func (m *Mongo) MakeUserAdmin(ctx context.Context, id string) (UpdateResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return UpdateResult{}, err
	}
	res, err := m.users.UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"role": RoleAdmin}})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("make admin: %w", err)
	}
	return updateResult(res), nil
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := m.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (m *Mongo) ListUsers(ctx context.Context) ([]User, error) {
	return listAll[User](ctx, m.users, nil)
}

func (m *Mongo) InsertPurchase(ctx context.Context, purchase Purchase) (InsertResult, error) {
	res, err := m.purchases.InsertOne(ctx, purchase)
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert purchase: %w", err)
	}
	return insertResult(res), nil
}

func (m *Mongo) GetPurchase(ctx context.Context, id string) (*Purchase, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var purchase Purchase
	err = m.purchases.FindOne(ctx, bson.M{"_id": oid}).Decode(&purchase)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find purchase: %w", err)
	}
	return &purchase, nil
}

func (m *Mongo) ListPurchases(ctx context.Context) ([]Purchase, error) {
	return listAll[Purchase](ctx, m.purchases, nil)
}

func (m *Mongo) ListPurchasesByEmail(ctx context.Context, email string) ([]Purchase, error) {
	cursor, err := m.purchases.Find(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("find purchases: %w", err)
	}
	out := []Purchase{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode purchases: %w", err)
	}
	if out == nil {
		out = []Purchase{}
	}
	return out, nil
}

func (m *Mongo) UpdatePurchase(ctx context.Context, id string, patch PurchasePatch) (UpdateResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return UpdateResult{}, err
	}
	set := purchaseSetDoc(patch)
	if len(set) == 0 {
		return UpdateResult{Acknowledged: true}, nil
	}
	res, err := m.purchases.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update purchase: %w", err)
	}
	return updateResult(res), nil
}

func (m *Mongo) DeletePurchase(ctx context.Context, id string) (DeleteResult, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return DeleteResult{}, err
	}
	res, err := m.purchases.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete purchase: %w", err)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func listAll[T any](ctx context.Context, coll *mongo.Collection, opts *options.FindOptions) ([]T, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = coll.Find(ctx, bson.D{}, opts)
	} else {
		cursor, err = coll.Find(ctx, bson.D{})
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func insertResult(res *mongo.InsertOneResult) InsertResult {
	out := InsertResult{Acknowledged: true}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		out.InsertedID = oid.Hex()
	}
	return out
}

func updateResult(res *mongo.UpdateResult) UpdateResult {
	out := UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
		hex := oid.Hex()
		out.UpsertedID = &hex
	}
	return out
}

func profileSetDoc(profile UserProfile) bson.M {
	set := bson.M{}
	if profile.Name != nil {
		set["name"] = *profile.Name
	}
	if profile.Education != nil {
		set["education"] = *profile.Education
	}
	if profile.Location != nil {
		set["location"] = *profile.Location
	}
	if profile.Phone != nil {
		set["phone"] = *profile.Phone
	}
	if profile.LinkedIn != nil {
		set["linkedin"] = *profile.LinkedIn
	}
	return set
}

func purchaseSetDoc(patch PurchasePatch) bson.M {
	set := bson.M{}
	if patch.Quantity != nil {
		set["quantity"] = *patch.Quantity
	}
	if patch.Address != nil {
		set["address"] = *patch.Address
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.TransactionID != nil {
		set["transactionId"] = *patch.TransactionID
	}
	return set
}
