package services

import (
	"context"
	"testing"

	"blognest/app/repositories"

	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *repositories.Store
	posts    *PostService
	comments *CommentService
	users    *UserService
}

func setupTestEnv(t *testing.T) *testEnv {
	store, err := repositories.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	postRepo := repositories.NewBadgerPostRepository(store)
	commentRepo := repositories.NewBadgerCommentRepository(store)
	userRepo := repositories.NewBadgerUserRepository(store)

	return &testEnv{
		store:    store,
		posts:    NewPostService(postRepo, commentRepo),
		comments: NewCommentService(commentRepo, postRepo),
		users:    NewUserService(userRepo, MinPasswordCost),
	}
}

var ctx = context.Background()
