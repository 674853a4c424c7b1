// Package firestoredb implements store.Store on Cloud Firestore.
package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"recipeshare_backend/store"
)

const (
	recipesCollection   = "recipes"
	usersCollection     = "users"
	commentsCollection  = "comments"
	faqsCollection      = "faqs"
	templatesCollection = "templates"

	// maxSearchCandidates bounds how many keyword matches are ranked per search.
	maxSearchCandidates = 500
)

type Store struct {
	client *firestore.Client
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// New connects to the project. When credentialsFile is empty the default
// application credentials (or FIRESTORE_EMULATOR_HOST) are used.
func New(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{client: client, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) col(name string) *firestore.CollectionRef {
	return s.client.Collection(name)
}

// mapErr translates gRPC status codes into store sentinels.
func mapErr(err error, kind, id string) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrDuplicate)
	}
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrDuplicate) {
		return err
	}
	return fmt.Errorf("%s %s: %w", kind, id, err)
}

// getAll drains a query into T.
func getAll[T any](iter *firestore.DocumentIterator) ([]T, error) {
	defer iter.Stop()
	out := []T{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", doc.Ref.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func count(ctx context.Context, q firestore.Query) (int64, error) {
	res, err := q.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := res["total"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("count: unexpected result %T", res["total"])
	}
	return v.GetIntegerValue(), nil
}
