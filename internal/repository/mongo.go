package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/belanjain/internal/models"
)

// Collection names, matching the keys the storefront originally persisted under.
const (
	ordersCollection   = "belanjain_orders"
	itemsCollection    = "belanjain_order_items"
	trackingCollection = "belanjain_order_tracking"
)

// MongoOrderRepository stores orders, items and tracking in three collections.
type MongoOrderRepository struct {
	client   *mongo.Client
	orders   *mongo.Collection
	items    *mongo.Collection
	tracking *mongo.Collection
}

// NewMongoOrderRepository constructs MongoOrderRepository on the given database.
func NewMongoOrderRepository(client *mongo.Client, database string) *MongoOrderRepository {
	db := client.Database(database)
	return &MongoOrderRepository{
		client:   client,
		orders:   db.Collection(ordersCollection),
		items:    db.Collection(itemsCollection),
		tracking: db.Collection(trackingCollection),
	}
}

// EnsureIndexes creates the lookup indexes used by the queries below.
func (r *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "customer_email", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}); err != nil {
		return err
	}
	if _, err := r.items.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "line_no", Value: 1}},
	}); err != nil {
		return err
	}
	_, err := r.tracking.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "order_id", Value: 1}, {Key: "sequence", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// CreateOrder runs the three inserts in a transaction when the deployment
// supports one. Standalone servers reject transactions; there the inserts run
// sequentially and a crash between them can leave a partial order.
func (r *MongoOrderRepository) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem, tracking *models.OrderTracking) error {
	tracking.Sequence = 1

	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, r.insertOrder(sc, order, items, tracking)
	})
	if err == nil || !transactionsUnsupported(err) {
		return err
	}

	slog.WarnContext(ctx, "mongo transactions unavailable, writing order sequentially", "order_id", order.ID)
	return r.insertOrder(ctx, order, items, tracking)
}

func (r *MongoOrderRepository) insertOrder(ctx context.Context, order *models.Order, items []models.OrderItem, tracking *models.OrderTracking) error {
	if _, err := r.orders.InsertOne(ctx, order); err != nil {
		return err
	}
	if len(items) > 0 {
		docs := make([]any, len(items))
		for i := range items {
			docs[i] = items[i]
		}
		if _, err := r.items.InsertMany(ctx, docs); err != nil {
			return err
		}
	}
	_, err := r.tracking.InsertOne(ctx, tracking)
	return err
}

func (r *MongoOrderRepository) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *MongoOrderRepository) ListOrders(ctx context.Context, customerEmail string) ([]models.Order, error) {
	filter := bson.M{}
	if customerEmail != "" {
		filter["customer_email"] = customerEmail
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *MongoOrderRepository) ListItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "line_no", Value: 1}})
	cursor, err := r.items.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, err
	}

	items := []models.OrderItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoOrderRepository) ListTracking(ctx context.Context, orderID string) ([]models.OrderTracking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	cursor, err := r.tracking.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, err
	}

	tracking := []models.OrderTracking{}
	if err := cursor.All(ctx, &tracking); err != nil {
		return nil, err
	}
	return tracking, nil
}

// UpdateStatus runs the status change and the tracking insert in one
// transaction, with the same sequential fallback as CreateOrder. A duplicate
// (order_id, sequence) from a concurrent update aborts the transaction.
func (r *MongoOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, updatedAt time.Time, tracking *models.OrderTracking) (*models.Order, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	res, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return r.appendStatus(sc, id, status, updatedAt, tracking)
	})
	if err == nil {
		return res.(*models.Order), nil
	}
	if !transactionsUnsupported(err) {
		return nil, err
	}

	slog.WarnContext(ctx, "mongo transactions unavailable, updating status sequentially", "order_id", id)
	return r.appendStatus(ctx, id, status, updatedAt, tracking)
}

func (r *MongoOrderRepository) appendStatus(ctx context.Context, id string, status models.OrderStatus, updatedAt time.Time, tracking *models.OrderTracking) (*models.Order, error) {
	var order models.Order
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.orders.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": updatedAt,
	}}, opts).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var last models.OrderTracking
	findOpts := options.FindOne().SetSort(bson.D{{Key: "sequence", Value: -1}})
	err = r.tracking.FindOne(ctx, bson.M{"order_id": id}, findOpts).Decode(&last)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	tracking.Sequence = last.Sequence + 1
	if _, err := r.tracking.InsertOne(ctx, tracking); err != nil {
		return nil, err
	}
	return &order, nil
}

func transactionsUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// IllegalOperation: "Transaction numbers are only allowed on a replica set member or mongos".
		return cmdErr.Code == 20
	}
	return false
}
