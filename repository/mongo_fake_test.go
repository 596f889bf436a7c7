package repository

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeCollection is an in-memory stand-in for *mongo.Collection supporting
// top-level equality filters, $set updates, skip/limit and unique keys.
type fakeCollection struct {
	t      *testing.T
	docs   []bson.M
	unique [][]string
	err    error
}

func newFakeCollection(t *testing.T, unique ...[]string) *fakeCollection {
	t.Helper()
	return &fakeCollection{t: t, unique: unique}
}

func (f *fakeCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	doc := toM(f.t, document)

	for _, keys := range f.unique {
		probe := bson.M{}
		for _, k := range keys {
			probe[k] = doc[k]
		}
		if len(f.match(probe)) > 0 {
			return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{
				{Code: 11000, Message: fmt.Sprintf("E11000 duplicate key error on %v", keys)},
			}}
		}
	}

	f.docs = append(f.docs, doc)
	return &mongo.InsertOneResult{InsertedID: doc["_id"]}, nil
}

func (f *fakeCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	if f.err != nil {
		return mongo.NewSingleResultFromDocument(bson.M{}, f.err, nil)
	}
	idx := f.match(toM(f.t, filter))
	if len(idx) == 0 {
		return mongo.NewSingleResultFromDocument(bson.M{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(f.docs[idx[0]], nil, nil)
}

func (f *fakeCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	if f.err != nil {
		return nil, f.err
	}
	idx := f.match(toM(f.t, filter))

	var skip, limit int64
	for _, o := range opts {
		if o == nil {
			continue
		}
		if o.Skip != nil {
			skip = *o.Skip
		}
		if o.Limit != nil {
			limit = *o.Limit
		}
	}

	out := make([]interface{}, 0, len(idx))
	for i, pos := range idx {
		if int64(i) < skip {
			continue
		}
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
		out = append(out, f.docs[pos])
	}
	return mongo.NewCursorFromDocuments(out, nil, nil)
}

func (f *fakeCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	idx := f.match(toM(f.t, filter))
	if len(idx) == 0 {
		return &mongo.UpdateResult{}, nil
	}

	switch set := toM(f.t, update)["$set"].(type) {
	case bson.M:
		for k, v := range set {
			f.docs[idx[0]][k] = v
		}
	case bson.D:
		for _, e := range set {
			f.docs[idx[0]][e.Key] = e.Value
		}
	default:
		f.t.Fatalf("fake collection only supports $set updates, got %v", update)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	idx := f.match(toM(f.t, filter))
	if len(idx) == 0 {
		return &mongo.DeleteResult{}, nil
	}
	f.docs = append(f.docs[:idx[0]], f.docs[idx[0]+1:]...)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (f *fakeCollection) match(filter bson.M) []int {
	var out []int
	for i, doc := range f.docs {
		ok := true
		for k, v := range filter {
			if !reflect.DeepEqual(doc[k], v) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// count returns how many stored documents match filter.
func (f *fakeCollection) count(filter bson.M) int {
	return len(f.match(toM(f.t, filter)))
}

func toM(t *testing.T, v interface{}) bson.M {
	t.Helper()

	raw, err := bson.Marshal(v)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	return out
}
