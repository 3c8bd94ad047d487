package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoStore is a Store backed by one MongoDB database. The driver dials
// lazily, so constructing a store performs no network I/O.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo creates a client for uri and selects database dbName.
func OpenMongo(uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetBSONOptions(mongoBSONOptions()))
	if err != nil {
		return nil, fmt.Errorf("docstore: mongo connect: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

// mongoBSONOptions decodes ObjectID keys of imported documents into the
// string identifiers used by models.
func mongoBSONOptions() *options.BSONOptions {
	return &options.BSONOptions{ObjectIDAsHexString: true}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context, collection string, indexes ...Index) error {
	if len(indexes) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, idx := range indexes {
		if err := checkField(idx.Field); err != nil {
			return err
		}
		opts := options.Index()
		if idx.Unique {
			opts.SetUnique(true)
		}
		if idx.Sparse {
			opts.SetSparse(true)
		}
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: idx.Field, Value: 1}},
			Options: opts,
		})
	}
	if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("docstore: create indexes %s: %w", collection, err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var mongoOps = map[op]string{
	opEq:  "$eq",
	opNe:  "$ne",
	opGte: "$gte",
	opLte: "$lte",
}

// mongoFilter translates f into a query document, merging conditions on
// the same field.
func mongoFilter(f Filter) (bson.M, error) {
	if err := checkFilter(f); err != nil {
		return nil, err
	}
	out := bson.M{}
	for _, c := range f {
		ops, ok := out[c.Field].(bson.M)
		if !ok {
			ops = bson.M{}
			out[c.Field] = ops
		}
		name, value := mongoCond(c)
		ops[name] = value
	}
	return out, nil
}

// mongoCond lets a hex identifier match both string and ObjectID keys.
func mongoCond(c Cond) (string, any) {
	id, ok := c.Value.(string)
	if !ok || c.Field != IDField || (c.op != opEq && c.op != opNe) {
		return mongoOps[c.op], c.Value
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return mongoOps[c.op], c.Value
	}
	if c.op == opEq {
		return "$in", bson.A{id, oid}
	}
	return "$nin", bson.A{id, oid}
}

func mongoUpdate(u Update) (bson.M, error) {
	if err := checkUpdate(u); err != nil {
		return nil, err
	}
	out := bson.M{}
	if len(u.Set) > 0 {
		out["$set"] = bson.M(u.Set)
	}
	if len(u.Inc) > 0 {
		out["$inc"] = bson.M(toAnyMap(u.Inc))
	}
	return out, nil
}

func toAnyMap(m map[string]int64) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mongoProjection(fields []string) bson.M {
	p := bson.M{}
	for _, f := range fields {
		p[f] = 1
	}
	return p
}

// toBSONDoc encodes doc and guarantees a string identifier.
func toBSONDoc(doc any) (string, bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return "", nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return "", nil, err
	}
	id, _ := m[IDField].(string)
	if id == "" {
		id = uuid.NewString()
	}
	m[IDField] = id
	return id, m, nil
}

type mongoCollection[T any] struct {
	name string
	coll *mongo.Collection
}

func (c *mongoCollection[T]) wrap(op string, err error) error {
	return fmt.Errorf("docstore: %s %s: %w", op, c.name, err)
}

func (c *mongoCollection[T]) Insert(ctx context.Context, doc T) (InsertResult, error) {
	id, m, err := toBSONDoc(doc)
	if err != nil {
		return InsertResult{}, c.wrap("insert", err)
	}
	if _, err := c.coll.InsertOne(ctx, m); err != nil {
		return InsertResult{}, c.wrap("insert", err)
	}
	return InsertResult{InsertedID: id}, nil
}

func (c *mongoCollection[T]) Find(ctx context.Context, filter Filter, opts ...FindOption) ([]T, error) {
	q, err := mongoFilter(filter)
	if err != nil {
		return nil, c.wrap("find", err)
	}
	findOpts := options.Find()
	if o := collectOptions(opts); len(o.projection) > 0 {
		findOpts.SetProjection(mongoProjection(o.projection))
	}

	cur, err := c.coll.Find(ctx, q, findOpts)
	if err != nil {
		return nil, c.wrap("find", err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, c.wrap("find", err)
	}
	return out, nil
}

func (c *mongoCollection[T]) FindOne(ctx context.Context, filter Filter, opts ...FindOption) (T, bool, error) {
	var out T
	q, err := mongoFilter(filter)
	if err != nil {
		return out, false, c.wrap("find one", err)
	}
	findOpts := options.FindOne()
	if o := collectOptions(opts); len(o.projection) > 0 {
		findOpts.SetProjection(mongoProjection(o.projection))
	}

	err = c.coll.FindOne(ctx, q, findOpts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, false, nil
	}
	if err != nil {
		return out, false, c.wrap("find one", err)
	}
	return out, true, nil
}

func (c *mongoCollection[T]) Update(ctx context.Context, filter Filter, u Update) (UpdateResult, error) {
	q, err := mongoFilter(filter)
	if err != nil {
		return UpdateResult{}, c.wrap("update", err)
	}
	upd, err := mongoUpdate(u)
	if err != nil {
		return UpdateResult{}, c.wrap("update", err)
	}

	res, err := c.coll.UpdateOne(ctx, q, upd)
	if err != nil {
		return UpdateResult{}, c.wrap("update", err)
	}
	return UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (c *mongoCollection[T]) Delete(ctx context.Context, filter Filter) (DeleteResult, error) {
	q, err := mongoFilter(filter)
	if err != nil {
		return DeleteResult{}, c.wrap("delete", err)
	}
	res, err := c.coll.DeleteOne(ctx, q)
	if err != nil {
		return DeleteResult{}, c.wrap("delete", err)
	}
	return DeleteResult{DeletedCount: res.DeletedCount}, nil
}

// Upsert sets every field of doc on the first match. The identifier is only
// written when a new document is inserted, since MongoDB forbids changing it.
func (c *mongoCollection[T]) Upsert(ctx context.Context, filter Filter, doc T) (UpdateResult, error) {
	q, err := mongoFilter(filter)
	if err != nil {
		return UpdateResult{}, c.wrap("upsert", err)
	}
	id, m, err := toBSONDoc(doc)
	if err != nil {
		return UpdateResult{}, c.wrap("upsert", err)
	}
	delete(m, IDField)

	upd := bson.M{"$setOnInsert": bson.M{IDField: id}}
	if len(m) > 0 {
		upd["$set"] = m
	}
	res, err := c.coll.UpdateOne(ctx, q, upd, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return UpdateResult{}, c.wrap("upsert", err)
	}

	out := UpdateResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}
	if res.UpsertedID != nil {
		out.UpsertedID = id
	}
	return out, nil
}
