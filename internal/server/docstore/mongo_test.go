package docstore

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func TestMongoFilter_MergesConditionsPerField(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	got, err := mongoFilter(Where(Eq("owner", "alice"), Gte("at", from), Lte("at", to), Ne("tag", "draft")))
	require.NoError(t, err)

	assert.Equal(t, bson.M{
		"owner": bson.M{"$eq": "alice"},
		"at":    bson.M{"$gte": from, "$lte": to},
		"tag":   bson.M{"$ne": "draft"},
	}, got)
}

func TestMongoFilter_HexIDMatchesObjectIDs(t *testing.T) {
	oid := bson.NewObjectID()

	got, err := mongoFilter(Where(Eq(IDField, oid.Hex())))
	require.NoError(t, err)
	assert.Equal(t, bson.M{IDField: bson.M{"$in": bson.A{oid.Hex(), oid}}}, got)

	got, err = mongoFilter(Where(Ne(IDField, oid.Hex())))
	require.NoError(t, err)
	assert.Equal(t, bson.M{IDField: bson.M{"$nin": bson.A{oid.Hex(), oid}}}, got)

	uid := "0b6f3e0c-51b4-4a8e-9d8e-3f2a1c7d9e10"
	got, err = mongoFilter(Where(Eq(IDField, uid)))
	require.NoError(t, err)
	assert.Equal(t, bson.M{IDField: bson.M{"$eq": uid}}, got)

	got, err = mongoFilter(Where(Eq("title", oid.Hex())))
	require.NoError(t, err)
	assert.Equal(t, bson.M{"title": bson.M{"$eq": oid.Hex()}}, got)
}

func TestMongoBSONOptions_DecodesObjectIDIntoString(t *testing.T) {
	oid := bson.NewObjectID()
	raw, err := bson.Marshal(bson.D{{Key: "_id", Value: oid}, {Key: "title", Value: "imported"}})
	require.NoError(t, err)

	var plain note
	assert.Error(t, bson.Unmarshal(raw, &plain))

	opts := mongoBSONOptions()
	require.True(t, opts.ObjectIDAsHexString)

	dec := bson.NewDecoder(bson.NewDocumentReader(bytes.NewReader(raw)))
	dec.ObjectIDAsHexString()
	var n note
	require.NoError(t, dec.Decode(&n))
	assert.Equal(t, oid.Hex(), n.ID)
	assert.Equal(t, "imported", n.Title)
}

func TestMongoFilter_EmptyMatchesAll(t *testing.T) {
	got, err := mongoFilter(All)
	require.NoError(t, err)
	assert.Equal(t, bson.M{}, got)
}

func TestMongoUpdate(t *testing.T) {
	got, err := mongoUpdate(Update{Set: map[string]any{"title": "t"}, Inc: map[string]int64{"hits": 1}})
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"$set": bson.M{"title": "t"},
		"$inc": bson.M{"hits": int64(1)},
	}, got)

	got, err = mongoUpdate(Update{Inc: map[string]int64{"hits": 1}})
	require.NoError(t, err)
	_, hasSet := got["$set"]
	assert.False(t, hasSet, "empty $set is rejected by the server")

	_, err = mongoUpdate(Update{})
	assert.ErrorIs(t, err, ErrEmptyUpdate)
}

func TestToBSONDoc_AssignsStringID(t *testing.T) {
	id, m, err := toBSONDoc(note{Owner: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, m[IDField])
	assert.Equal(t, "alice", m["owner"])

	id, m, err = toBSONDoc(note{ID: "n-1"})
	require.NoError(t, err)
	assert.Equal(t, "n-1", id)
	assert.Equal(t, "n-1", m[IDField])
}

func TestMongoProjection(t *testing.T) {
	assert.Equal(t, bson.M{"title": 1, "tags": 1}, mongoProjection([]string{"title", "tags"}))
}

func TestIsDuplicate_Mongo(t *testing.T) {
	err := fmt.Errorf("docstore: insert users: %w", mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}},
	})
	assert.True(t, IsDuplicate(err))
	assert.False(t, IsDuplicate(errors.New("timeout")))
	assert.False(t, IsDuplicate(nil))
}
