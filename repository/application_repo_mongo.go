package repository

import (
	"context"
	"fmt"
	"time"

	"microloan/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type applicationDoc struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	UserEmail            string             `bson:"userEmail"`
	LoanTitle            string             `bson:"loanTitle"`
	LoanID               string             `bson:"loanId,omitempty"`
	FirstName            string             `bson:"firstName"`
	LastName             string             `bson:"lastName"`
	ContactNumber        string             `bson:"contactNumber"`
	NationalID           string             `bson:"nationalId,omitempty"`
	IncomeSource         string             `bson:"incomeSource,omitempty"`
	MonthlyIncome        float64            `bson:"monthlyIncome,omitempty"`
	LoanAmount           float64            `bson:"loanAmount"`
	Reason               string             `bson:"reason,omitempty"`
	Address              string             `bson:"address,omitempty"`
	Notes                string             `bson:"notes,omitempty"`
	Status               string             `bson:"status"`
	ApplicationFeeStatus string             `bson:"applicationFeeStatus"`
	AppliedAt            time.Time          `bson:"appliedAt"`
}

func newApplicationDoc(a *models.LoanApplication) applicationDoc {
	return applicationDoc{
		ID:                   primitive.NewObjectID(),
		UserEmail:            a.UserEmail,
		LoanTitle:            a.LoanTitle,
		LoanID:               a.LoanID,
		FirstName:            a.FirstName,
		LastName:             a.LastName,
		ContactNumber:        a.ContactNumber,
		NationalID:           a.NationalID,
		IncomeSource:         a.IncomeSource,
		MonthlyIncome:        a.MonthlyIncome,
		LoanAmount:           a.LoanAmount,
		Reason:               a.Reason,
		Address:              a.Address,
		Notes:                a.Notes,
		Status:               a.Status,
		ApplicationFeeStatus: a.ApplicationFeeStatus,
		AppliedAt:            a.AppliedAt,
	}
}

func (d applicationDoc) model() *models.LoanApplication {
	return &models.LoanApplication{
		ID:                   d.ID.Hex(),
		UserEmail:            d.UserEmail,
		LoanTitle:            d.LoanTitle,
		LoanID:               d.LoanID,
		FirstName:            d.FirstName,
		LastName:             d.LastName,
		ContactNumber:        d.ContactNumber,
		NationalID:           d.NationalID,
		IncomeSource:         d.IncomeSource,
		MonthlyIncome:        d.MonthlyIncome,
		LoanAmount:           d.LoanAmount,
		Reason:               d.Reason,
		Address:              d.Address,
		Notes:                d.Notes,
		Status:               d.Status,
		ApplicationFeeStatus: d.ApplicationFeeStatus,
		AppliedAt:            d.AppliedAt,
	}
}

type MongoApplicationRepo struct {
	coll mongoCollection
}

// NewMongoApplicationRepo expects coll to carry a unique compound index on
// (userEmail, loanTitle).
func NewMongoApplicationRepo(coll mongoCollection) *MongoApplicationRepo {
	return &MongoApplicationRepo{coll: coll}
}

func (r *MongoApplicationRepo) CreateApplication(ctx context.Context, app *models.LoanApplication) error {
	doc := newApplicationDoc(app)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return insertErr("application", err)
	}

	app.ID = doc.ID.Hex()
	return nil
}

func (r *MongoApplicationRepo) ListApplications(ctx context.Context, userEmail string) ([]*models.LoanApplication, error) {
	filter := bson.M{}
	if userEmail != "" {
		filter["userEmail"] = userEmail
	}

	docs, err := findAll[applicationDoc](ctx, r.coll, filter)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	out := make([]*models.LoanApplication, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (r *MongoApplicationRepo) UpdateApplicationStatus(ctx context.Context, id, status string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoApplicationRepo) DeleteApplication(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
