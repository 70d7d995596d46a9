package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/chirper-app/backend/internal/apperrors"
	"github.com/chirper-app/backend/internal/middleware"
	"github.com/chirper-app/backend/internal/models"
	"github.com/chirper-app/backend/internal/validators"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testJWTSecret = "test-secret"

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.LikedPosts == nil {
		user.LikedPosts = []primitive.ObjectID{}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *fakeUserRepo) UpdateUser(_ context.Context, user *models.User) error {
	stored, ok := r.users[user.ID]
	if !ok {
		return apperrors.NotFound("user")
	}
	stored.Username = user.Username
	stored.FullName = user.FullName
	stored.Email = user.Email
	stored.Password = user.Password
	stored.Bio = user.Bio
	stored.Link = user.Link
	stored.ProfileImg = user.ProfileImg
	stored.CoverImg = user.CoverImg
	stored.UpdatedAt = time.Now()
	return nil
}

func addToSet(set []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	for _, existing := range set {
		if existing == id {
			return set
		}
	}
	return append(set, id)
}

func pull(set []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := set[:0]
	for _, existing := range set {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func (r *fakeUserRepo) AddFollow(_ context.Context, followerID, followingID primitive.ObjectID) error {
	r.users[followerID].Following = addToSet(r.users[followerID].Following, followingID)
	r.users[followingID].Followers = addToSet(r.users[followingID].Followers, followerID)
	return nil
}

func (r *fakeUserRepo) RemoveFollow(_ context.Context, followerID, followingID primitive.ObjectID) error {
	r.users[followerID].Following = pull(r.users[followerID].Following, followingID)
	r.users[followingID].Followers = pull(r.users[followingID].Followers, followerID)
	return nil
}

func (r *fakeUserRepo) AddLikedPost(_ context.Context, userID, postID primitive.ObjectID) error {
	r.users[userID].LikedPosts = addToSet(r.users[userID].LikedPosts, postID)
	return nil
}

func (r *fakeUserRepo) RemoveLikedPost(_ context.Context, userID, postID primitive.ObjectID) error {
	r.users[userID].LikedPosts = pull(r.users[userID].LikedPosts, postID)
	return nil
}

// SampleUsers returns every other user, which keeps the suggestion tests
// deterministic while exercising the same filtering path.
func (r *fakeUserRepo) SampleUsers(_ context.Context, exclude primitive.ObjectID, size int) ([]models.User, error) {
	users := []models.User{}
	for _, u := range r.users {
		if u.ID == exclude {
			continue
		}
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	if len(users) > size {
		users = users[:size]
	}
	return users, nil
}

// fakePostRepo is an in-memory PostRepository preserving insertion order.
type fakePostRepo struct {
	posts []*models.Post
	seq   int
}

func newFakePostRepo() *fakePostRepo { return &fakePostRepo{} }

func (r *fakePostRepo) CreatePost(_ context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	r.seq++
	// Strictly increasing timestamps so newest-first ordering is stable.
	post.CreatedAt = time.Unix(int64(r.seq), 0)
	post.UpdatedAt = post.CreatedAt
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	cp := *post
	r.posts = append(r.posts, &cp)
	return nil
}

func (r *fakePostRepo) get(id primitive.ObjectID) *models.Post {
	for _, p := range r.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *fakePostRepo) GetPostByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	p := r.get(id)
	if p == nil {
		return nil, apperrors.NotFound("post")
	}
	cp := *p
	cp.Likes = append([]primitive.ObjectID{}, p.Likes...)
	cp.Comments = append([]models.Comment{}, p.Comments...)
	return &cp, nil
}

func (r *fakePostRepo) collect(match func(*models.Post) bool, newestFirst bool) []models.Post {
	out := []models.Post{}
	for _, p := range r.posts {
		if match(p) {
			out = append(out, *p)
		}
	}
	if newestFirst {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}

func (r *fakePostRepo) GetAllPosts(_ context.Context) ([]models.Post, error) {
	return r.collect(func(*models.Post) bool { return true }, true), nil
}

func (r *fakePostRepo) GetPostsByUserID(_ context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	return r.collect(func(p *models.Post) bool { return p.UserID == userID }, true), nil
}

func (r *fakePostRepo) GetPostsByUserIDs(_ context.Context, userIDs []primitive.ObjectID) ([]models.Post, error) {
	set := make(map[primitive.ObjectID]bool, len(userIDs))
	for _, id := range userIDs {
		set[id] = true
	}
	return r.collect(func(p *models.Post) bool { return set[p.UserID] }, true), nil
}

func (r *fakePostRepo) GetPostsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	set := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return r.collect(func(p *models.Post) bool { return set[p.ID] }, false), nil
}

func (r *fakePostRepo) DeletePost(_ context.Context, id primitive.ObjectID) error {
	for i, p := range r.posts {
		if p.ID == id {
			r.posts = append(r.posts[:i], r.posts[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("post")
}

func (r *fakePostRepo) AddLike(_ context.Context, postID, userID primitive.ObjectID) error {
	p := r.get(postID)
	if p == nil {
		return apperrors.NotFound("post")
	}
	p.Likes = addToSet(p.Likes, userID)
	return nil
}

func (r *fakePostRepo) RemoveLike(_ context.Context, postID, userID primitive.ObjectID) error {
	p := r.get(postID)
	if p == nil {
		return apperrors.NotFound("post")
	}
	p.Likes = pull(p.Likes, userID)
	return nil
}

func (r *fakePostRepo) PushComment(_ context.Context, postID primitive.ObjectID, comment models.Comment) error {
	p := r.get(postID)
	if p == nil {
		return apperrors.NotFound("post")
	}
	p.Comments = append(p.Comments, comment)
	return nil
}

func (r *fakePostRepo) PullComment(_ context.Context, postID, commentID primitive.ObjectID) error {
	p := r.get(postID)
	if p == nil {
		return apperrors.NotFound("post")
	}
	for i, cm := range p.Comments {
		if cm.ID == commentID {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			return nil
		}
	}
	return nil
}

// fakeNotificationRepo is an in-memory NotificationRepository.
type fakeNotificationRepo struct {
	notifications []*models.Notification
	seq           int
}

func newFakeNotificationRepo() *fakeNotificationRepo { return &fakeNotificationRepo{} }

func (r *fakeNotificationRepo) CreateNotification(_ context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	r.seq++
	n.CreatedAt = time.Unix(int64(r.seq), 0)
	cp := *n
	r.notifications = append(r.notifications, &cp)
	return nil
}

func (r *fakeNotificationRepo) GetByRecipient(_ context.Context, to primitive.ObjectID) ([]models.Notification, error) {
	out := []models.Notification{}
	for _, n := range r.notifications {
		if n.To == to {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, to primitive.ObjectID) error {
	for _, n := range r.notifications {
		if n.To == to {
			n.Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteAllForRecipient(_ context.Context, to primitive.ObjectID) error {
	kept := r.notifications[:0]
	for _, n := range r.notifications {
		if n.To != to {
			kept = append(kept, n)
		}
	}
	r.notifications = kept
	return nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, to primitive.ObjectID) (int64, error) {
	var count int64
	for _, n := range r.notifications {
		if n.To == to && !n.Read {
			count++
		}
	}
	return count, nil
}

// all returns the notifications from an actor to a recipient of a type.
func (r *fakeNotificationRepo) all(from, to primitive.ObjectID, typ string) []*models.Notification {
	out := []*models.Notification{}
	for _, n := range r.notifications {
		if n.From == from && n.To == to && n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// fakeImageStore is an in-memory imagestore.Store.
type fakeImageStore struct {
	uploads   int
	destroyed []string
}

func (s *fakeImageStore) Upload(_ context.Context, payload string) (string, error) {
	s.uploads++
	return fmt.Sprintf("https://cdn.example.com/img/%d.jpg", s.uploads), nil
}

func (s *fakeImageStore) Destroy(_ context.Context, imageURL string) error {
	s.destroyed = append(s.destroyed, imageURL)
	return nil
}

// testEnv bundles the fakes behind a fully wired Echo server.
type testEnv struct {
	e         *echo.Echo
	userRepo  *fakeUserRepo
	postRepo  *fakePostRepo
	notifRepo *fakeNotificationRepo
	imgStore  *fakeImageStore
}

func newTestEnv() *testEnv {
	env := &testEnv{
		userRepo:  newFakeUserRepo(),
		postRepo:  newFakePostRepo(),
		notifRepo: newFakeNotificationRepo(),
		imgStore:  &fakeImageStore{},
	}

	e := echo.New()
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler

	authGroup := e.Group("/api/auth")
	NewAuthHandler(env.userRepo, testJWTSecret).RegisterAuthRoutes(authGroup)

	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(testJWTSecret))
	NewUserHandler(env.userRepo, env.notifRepo, env.imgStore).RegisterUserRoutes(api)
	NewPostHandler(env.postRepo, env.userRepo, env.notifRepo, env.imgStore).RegisterPostRoutes(api)
	NewNotificationHandler(env.notifRepo, env.userRepo).RegisterNotificationRoutes(api)

	env.e = e
	return env
}

// addUser seeds a user directly into the store.
func (env *testEnv) addUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		FullName: username + " Test",
		Email:    username + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, env.userRepo.CreateUser(context.Background(), user))
	return user
}

// addPost seeds a post directly into the store.
func (env *testEnv) addPost(t *testing.T, author *models.User, text string) *models.Post {
	t.Helper()
	post := &models.Post{UserID: author.ID, Text: text}
	require.NoError(t, env.postRepo.CreatePost(context.Background(), post))
	return post
}

// tokenFor signs a bearer token for the user with the test secret.
func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

// do performs a request against the wired server. A nil user leaves the
// request unauthenticated.
func (env *testEnv) do(t *testing.T, method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != nil {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tokenFor(t, user))
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}
