// Package mongostore is a Store backed by MongoDB.
//
// Users and expenses keep int64 ids so they stay interchangeable with the
// SQLite backend; ids come from a counters collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"expensify/internal/core"
	"expensify/internal/storage"
)

const (
	usersCollection    = "users"
	expensesCollection = "expenses"
	countersCollection = "counters"
)

type userDoc struct {
	ID           int64     `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

// Dates are stored as YYYY-MM-DD strings so range filters compare chronologically.
type expenseDoc struct {
	ID          int64     `bson:"_id"`
	UserID      int64     `bson:"user_id"`
	Title       string    `bson:"title"`
	AmountCents int64     `bson:"amount_cents"`
	Category    string    `bson:"category"`
	Date        string    `bson:"date"`
	CreatedAt   time.Time `bson:"created_at"`
}

type counterDoc struct {
	Seq int64 `bson:"seq"`
}

// Store implements storage.Store on a single MongoDB database.
type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	expenses *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New connects to uri, pings the server and ensures the indexes exist.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:   client,
		users:    db.Collection(usersCollection),
		expenses: db.Collection(expensesCollection),
		counters: db.Collection(countersCollection),
		now:      time.Now,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	slog.InfoContext(ctx, "Connected to MongoDB", "database", dbName)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = s.expenses.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create expenses index: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// nextID atomically increments the named counter.
func (s *Store) nextID(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counterDoc
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return c.Seq, nil
}

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = core.NormalizeEmail(u.Email)
	u.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	id, err := s.nextID(ctx, usersCollection)
	if err != nil {
		return core.User{}, err
	}
	u.ID = id

	_, err = s.users.InsertOne(ctx, userDoc{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return core.User{}, storage.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID)
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return s.findUser(ctx, bson.M{"email": core.NormalizeEmail(email)})
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (core.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.User{}, storage.ErrNotFound
		}
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	return core.User{
		ID:           doc.ID,
		Name:         doc.Name,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt.UTC(),
	}, nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]int64, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []int64
	for cursor.Next(ctx) {
		var doc struct {
			ID int64 `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

func (s *Store) CreateExpense(ctx context.Context, userID int64, in core.ExpenseInput) (core.Expense, error) {
	id, err := s.nextID(ctx, expensesCollection)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		ID:        id,
		UserID:    userID,
		Title:     in.Title,
		Amount:    in.Amount.Rounded(),
		Category:  in.Category,
		Date:      in.Date,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if _, err := s.expenses.InsertOne(ctx, toDoc(e)); err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to MongoDB",
		"id", e.ID,
		"user_id", userID,
		"amount_cents", e.Amount.Cents(),
		"date", e.Date.String())
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	return s.findExpenses(ctx, bson.M{"user_id": userID}, opts)
}

func (s *Store) GetExpense(ctx context.Context, userID, id int64) (core.Expense, error) {
	var doc expenseDoc
	err := s.expenses.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.Expense{}, storage.ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("find expense: %w", err)
	}
	return fromDoc(doc)
}

func (s *Store) UpdateExpense(ctx context.Context, userID, id int64, in core.ExpenseInput) (core.Expense, error) {
	update := bson.M{"$set": bson.M{
		"title":        in.Title,
		"amount_cents": in.Amount.Cents(),
		"category":     in.Category,
		"date":         in.Date.String(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc expenseDoc
	err := s.expenses.FindOneAndUpdate(ctx, bson.M{"_id": id, "user_id": userID}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.Expense{}, storage.ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return fromDoc(doc)
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := s.expenses.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ExpensesInRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Expense, error) {
	filter := bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": start.String(), "$lte": end.String()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return s.findExpenses(ctx, filter, opts)
}

func (s *Store) findExpenses(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]core.Expense, error) {
	cursor, err := s.expenses.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find expenses: %w", err)
	}
	defer cursor.Close(ctx)

	expenses := []core.Expense{}
	for cursor.Next(ctx) {
		var doc expenseDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode expense: %w", err)
		}
		e, err := fromDoc(doc)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func toDoc(e core.Expense) expenseDoc {
	return expenseDoc{
		ID:          e.ID,
		UserID:      e.UserID,
		Title:       e.Title,
		AmountCents: e.Amount.Cents(),
		Category:    e.Category,
		Date:        e.Date.String(),
		CreatedAt:   e.CreatedAt,
	}
}

func fromDoc(doc expenseDoc) (core.Expense, error) {
	d, err := core.ParseDate(doc.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", doc.ID, err)
	}
	return core.Expense{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Title:     doc.Title,
		Amount:    core.MoneyFromCents(doc.AmountCents),
		Category:  doc.Category,
		Date:      d,
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}
