package repository

import (
	"context"
	"fmt"
	"time"

	"microloan/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type loanDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Description  string             `bson:"description"`
	Amount       float64            `bson:"amount"`
	InterestRate float64            `bson:"interestRate"`
	Image        string             `bson:"image"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d loanDoc) model() *models.Loan {
	return &models.Loan{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Description:  d.Description,
		Amount:       d.Amount,
		InterestRate: d.InterestRate,
		Image:        d.Image,
		CreatedAt:    d.CreatedAt,
	}
}

type MongoLoanRepo struct {
	coll mongoCollection
}

func NewMongoLoanRepo(coll mongoCollection) *MongoLoanRepo {
	return &MongoLoanRepo{coll: coll}
}

func (r *MongoLoanRepo) CreateLoan(ctx context.Context, loan *models.Loan) error {
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = time.Now().UTC()
	}

	doc := loanDoc{
		ID:           primitive.NewObjectID(),
		Title:        loan.Title,
		Description:  loan.Description,
		Amount:       loan.Amount,
		InterestRate: loan.InterestRate,
		Image:        loan.Image,
		CreatedAt:    loan.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return insertErr("loan", err)
	}

	loan.ID = doc.ID.Hex()
	return nil
}

func (r *MongoLoanRepo) ListLoans(ctx context.Context) ([]*models.Loan, error) {
	return r.list(ctx)
}

func (r *MongoLoanRepo) ListLoansWindow(ctx context.Context, skip, limit int64) ([]*models.Loan, error) {
	return r.list(ctx, options.Find().SetSkip(skip).SetLimit(limit))
}

func (r *MongoLoanRepo) list(ctx context.Context, opts ...*options.FindOptions) ([]*models.Loan, error) {
	docs, err := findAll[loanDoc](ctx, r.coll, bson.M{}, opts...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	out := make([]*models.Loan, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r *MongoLoanRepo) GetLoanByID(ctx context.Context, id string) (*models.Loan, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var doc loanDoc
	found, err := findOne(ctx, r.coll, bson.M{"_id": oid}, &doc)
	if err != nil {
		return nil, fmt.Errorf("find loan: %w", err)
	}
	if !found {
		return nil, nil
	}
	return doc.model(), nil
}
