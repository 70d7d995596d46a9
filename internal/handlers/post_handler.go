package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/chirper-app/backend/internal/apperrors"
	"github.com/chirper-app/backend/internal/imagestore"
	"github.com/chirper-app/backend/internal/middleware"
	"github.com/chirper-app/backend/internal/models"
	"github.com/chirper-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostHandler handles post, like and comment HTTP requests
type PostHandler struct {
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	imageStore             imagestore.Store
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	imgStore imagestore.Store,
) *PostHandler {
	return &PostHandler{
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		imageStore:             imgStore,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/posts/all", h.GetAllPosts)
	g.GET("/posts/following", h.GetFollowingPosts)
	g.GET("/posts/likes/:userId", h.GetLikedPosts)
	g.GET("/posts/user/:username", h.GetUserPosts)
	g.GET("/posts/:id", h.GetPost)
	g.POST("/posts/create", h.CreatePost)
	g.POST("/posts/like/:id", h.LikeUnlikePost)
	g.POST("/posts/comment/:id", h.CommentOnPost)
	g.DELETE("/posts/comment/:postId/:commentId", h.DeleteComment)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post. A post must carry text or an image; the
// image payload is persisted to the CDN first and only the hosted URL is
// stored.
func (h *PostHandler) CreatePost(c echo.Context) error {
	ctx := c.Request().Context()
	currentUserID := middleware.CurrentUserID(c)

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.InvalidArgument("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Text == "" && req.Img == "" {
		return apperrors.InvalidArgument("Post must have either text or image")
	}

	if _, err := h.userRepository.GetUserByID(ctx, currentUserID); err != nil {
		return err
	}

	img := ""
	if req.Img != "" {
		url, err := h.imageStore.Upload(ctx, req.Img)
		if err != nil {
			return err
		}
		img = url
	}

	post := &models.Post{
		UserID: currentUserID,
		Text:   req.Text,
		Img:    img,
	}
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, post)
}

// DeletePost deletes a post. Only the author may delete it; the hosted
// image is destroyed first, and a failure between the two writes leaves
// an orphaned image rather than a dangling post.
func (h *PostHandler) DeletePost(c echo.Context) error {
	ctx := c.Request().Context()
	currentUserID := middleware.CurrentUserID(c)

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return apperrors.NotFound("post")
	}

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != currentUserID {
		return apperrors.Forbidden("You are not authorized to delete this post")
	}

	if post.Img != "" {
		if err := h.imageStore.Destroy(ctx, post.Img); err != nil {
			return err
		}
	}
	if err := h.postRepository.DeletePost(ctx, postID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Post deleted successfully"})
}

// LikeUnlikePost toggles the caller's like on a post. post.likes and
// user.likedPosts move in lockstep; a like notification is created only
// on the not-liked to liked transition and never for one's own post.
// Returns the updated like set.
func (h *PostHandler) LikeUnlikePost(c echo.Context) error {
	ctx := c.Request().Context()
	currentUserID := middleware.CurrentUserID(c)

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return apperrors.NotFound("post")
	}

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}

	if post.LikedBy(currentUserID) {
		if err := h.postRepository.RemoveLike(ctx, postID, currentUserID); err != nil {
			return err
		}
		if err := h.userRepository.RemoveLikedPost(ctx, currentUserID, postID); err != nil {
			return err
		}

		updatedLikes := []primitive.ObjectID{}
		for _, id := range post.Likes {
			if id != currentUserID {
				updatedLikes = append(updatedLikes, id)
			}
		}
		return c.JSON(http.StatusOK, updatedLikes)
	}

	if err := h.postRepository.AddLike(ctx, postID, currentUserID); err != nil {
		return err
	}
	if err := h.userRepository.AddLikedPost(ctx, currentUserID, postID); err != nil {
		return err
	}

	if post.UserID != currentUserID {
		notification := &models.Notification{
			Type: models.NotificationTypeLike,
			From: currentUserID,
			To:   post.UserID,
			Post: &postID,
		}
		if err := h.notificationRepository.CreateNotification(ctx, notification); err != nil {
			return err
		}
	}

	return c.JSON(http.StatusOK, append(post.Likes, currentUserID))
}

// CommentOnPost appends a comment to a post. Append order is display
// order. The post author is notified unless they commented themselves.
func (h *PostHandler) CommentOnPost(c echo.Context) error {
	ctx := c.Request().Context()
	currentUserID := middleware.CurrentUserID(c)

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.InvalidArgument("Invalid request payload")
	}
	if req.Text == "" {
		return apperrors.InvalidArgument("Comment text is required")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return apperrors.NotFound("post")
	}
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    currentUserID,
		Text:      req.Text,
		CreatedAt: time.Now(),
	}
	if err := h.postRepository.PushComment(ctx, postID, comment); err != nil {
		return err
	}

	if post.UserID != currentUserID {
		notification := &models.Notification{
			Type: models.NotificationTypeComment,
			From: currentUserID,
			To:   post.UserID,
			Post: &postID,
		}
		if err := h.notificationRepository.CreateNotification(ctx, notification); err != nil {
			return err
		}
	}

	return h.respondWithPost(c, http.StatusOK, postID)
}

// DeleteComment removes a comment from a post. Only the comment's author
// may remove it; owning the post grants no right over others' comments.
func (h *PostHandler) DeleteComment(c echo.Context) error {
	ctx := c.Request().Context()
	currentUserID := middleware.CurrentUserID(c)

	postID, err := primitive.ObjectIDFromHex(c.Param("postId"))
	if err != nil {
		return apperrors.NotFound("post")
	}
	commentID, err := primitive.ObjectIDFromHex(c.Param("commentId"))
	if err != nil {
		return apperrors.NotFound("comment")
	}

	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}

	comment := post.CommentByID(commentID)
	if comment == nil {
		return apperrors.NotFound("comment")
	}
	if comment.UserID != currentUserID {
		return apperrors.Forbidden("You are not authorized to delete this comment")
	}

	if err := h.postRepository.PullComment(ctx, postID, commentID); err != nil {
		return err
	}

	return h.respondWithPost(c, http.StatusOK, postID)
}

// GetPost returns a single populated post.
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return apperrors.NotFound("post")
	}
	return h.respondWithPost(c, http.StatusOK, postID)
}

// GetAllPosts returns every post, newest first.
func (h *PostHandler) GetAllPosts(c echo.Context) error {
	posts, err := h.postRepository.GetAllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return h.respondWithPosts(c, posts)
}

// GetFollowingPosts returns posts authored by anyone the caller follows,
// newest first.
func (h *PostHandler) GetFollowingPosts(c echo.Context) error {
	ctx := c.Request().Context()
	currentUser, err := h.userRepository.GetUserByID(ctx, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}

	posts, err := h.postRepository.GetPostsByUserIDs(ctx, currentUser.Following)
	if err != nil {
		return err
	}
	return h.respondWithPosts(c, posts)
}

// GetUserPosts returns the posts of the user resolved from the username,
// newest first.
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return err
	}

	posts, err := h.postRepository.GetPostsByUserID(ctx, user.ID)
	if err != nil {
		return err
	}
	return h.respondWithPosts(c, posts)
}

// GetLikedPosts returns the posts in a user's likedPosts set, in store
// retrieval order.
func (h *PostHandler) GetLikedPosts(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		return apperrors.NotFound("user")
	}
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	posts, err := h.postRepository.GetPostsByIDs(ctx, user.LikedPosts)
	if err != nil {
		return err
	}
	return h.respondWithPosts(c, posts)
}

func (h *PostHandler) respondWithPost(c echo.Context, status int, postID primitive.ObjectID) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return err
	}
	populated, err := h.populatePosts(c.Request().Context(), []models.Post{*post})
	if err != nil {
		return err
	}
	return c.JSON(status, populated[0])
}

func (h *PostHandler) respondWithPosts(c echo.Context, posts []models.Post) error {
	populated, err := h.populatePosts(c.Request().Context(), posts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, populated)
}

// populatePosts attaches author and comment-author identities, fetching
// each distinct user once per request. Authors deleted out-of-band leave
// an empty identity rather than failing the read.
func (h *PostHandler) populatePosts(ctx context.Context, posts []models.Post) ([]models.PopulatedPost, error) {
	userCache := make(map[primitive.ObjectID]models.UserCompact)
	lookup := func(id primitive.ObjectID) models.UserCompact {
		if compact, ok := userCache[id]; ok {
			return compact
		}
		compact := models.UserCompact{ID: id}
		if user, err := h.userRepository.GetUserByID(ctx, id); err == nil {
			compact = user.ToCompact()
		}
		userCache[id] = compact
		return compact
	}

	populated := make([]models.PopulatedPost, len(posts))
	for i, p := range posts {
		comments := make([]models.PopulatedComment, len(p.Comments))
		for j, cm := range p.Comments {
			comments[j] = models.PopulatedComment{Comment: cm, User: lookup(cm.UserID)}
		}
		populated[i] = models.PopulatedPost{
			Post:     p,
			User:     lookup(p.UserID),
			Comments: comments,
		}
	}
	return populated, nil
}
