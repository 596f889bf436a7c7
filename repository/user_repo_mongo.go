package repository

import (
	"context"
	"fmt"
	"time"

	"microloan/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Name         string             `bson:"name,omitempty"`
	PhotoURL     string             `bson:"photoURL,omitempty"`
	Role         string             `bson:"role"`
	PasswordHash string             `bson:"passwordHash,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d userDoc) model() *models.AppUser {
	return &models.AppUser{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		Name:         d.Name,
		PhotoURL:     d.PhotoURL,
		Role:         d.Role,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

type MongoUserRepo struct {
	coll mongoCollection
}

// NewMongoUserRepo expects coll to carry a unique index on email.
func NewMongoUserRepo(coll mongoCollection) *MongoUserRepo {
	return &MongoUserRepo{coll: coll}
}

func (r *MongoUserRepo) CreateUser(ctx context.Context, user *models.AppUser) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Email:        user.Email,
		Name:         user.Name,
		PhotoURL:     user.PhotoURL,
		Role:         user.Role,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return insertErr("user", err)
	}

	user.ID = doc.ID.Hex()
	return nil
}

func (r *MongoUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.AppUser, error) {
	var doc userDoc
	found, err := findOne(ctx, r.coll, bson.M{"email": email}, &doc)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if !found {
		return nil, nil
	}
	return doc.model(), nil
}

func (r *MongoUserRepo) GetUserByID(ctx context.Context, id string) (*models.AppUser, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc userDoc
	found, err := findOne(ctx, r.coll, bson.M{"_id": oid}, &doc)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !found {
		return nil, nil
	}
	return doc.model(), nil
}

func (r *MongoUserRepo) ListUsers(ctx context.Context) ([]*models.AppUser, error) {
	docs, err := findAll[userDoc](ctx, r.coll, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]*models.AppUser, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r *MongoUserRepo) UpdateUserRole(ctx context.Context, id, role string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepo) DeleteUser(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
