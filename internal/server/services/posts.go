package services

import (
	"context"
	"regexp"
	"time"

	"github.com/dmitrijs2005/folio/internal/common"
	"github.com/dmitrijs2005/folio/internal/logging"
	"github.com/dmitrijs2005/folio/internal/server/cache"
	"github.com/dmitrijs2005/folio/internal/server/docstore"
	"github.com/dmitrijs2005/folio/internal/server/models"
	"github.com/dmitrijs2005/folio/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const overviewsCacheKey = "blog:overviews"

// objectIDRe matches MongoDB ObjectIDs of posts imported from older data.
var objectIDRe = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

func validPostID(id string) bool {
	if objectIDRe.MatchString(id) {
		return true
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// PostInput is the writable part of a post.
type PostInput struct {
	Title    string            `json:"title" validate:"required,max=200"`
	Overview string            `json:"overview" validate:"max=1000"`
	Content  string            `json:"content" validate:"max=200000"`
	Category string            `json:"category" validate:"max=100"`
	Tags     []string          `json:"tags" validate:"max=20,dive,max=50"`
	Status   models.PostStatus `json:"status" validate:"omitempty,oneof=published draft"`
}

// PostService manages blog posts. Overview listings are cached when a
// cache is given.
type PostService struct {
	repomanager repomanager.RepositoryManager
	cache       *cache.Cache
	logger      logging.Logger
}

func NewPostService(m repomanager.RepositoryManager, c *cache.Cache, logger logging.Logger) *PostService {
	return &PostService{repomanager: m, cache: c, logger: logger}
}

func (s *PostService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, overviewsCacheKey); err != nil {
		s.logger.Warn(ctx, "overview cache not invalidated", "error", err)
	}
}

func byPostID(id string) docstore.Filter {
	return docstore.Where(docstore.Eq(docstore.IDField, id))
}

var published = docstore.Where(docstore.Ne(models.PostStatusKey, models.PostDraft))

// Create stores a new post and returns its id.
func (s *PostService) Create(ctx context.Context, in PostInput) (string, error) {
	if err := Validate(in); err != nil {
		return "", err
	}
	if in.Status == "" {
		in.Status = models.PostPublished
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}

	now := time.Now().UTC()
	res, err := s.repomanager.Posts().Insert(ctx, models.Post{
		Title:      in.Title,
		Content:    in.Content,
		Overview:   in.Overview,
		Category:   in.Category,
		Tags:       in.Tags,
		Status:     in.Status,
		Date:       now,
		UpdateDate: now,
	})
	if err != nil {
		return "", common.StorageFailure(err)
	}
	s.invalidate(ctx)
	return res.InsertedID, nil
}

// Update overwrites the writable fields of a post. An empty status keeps
// the current one.
func (s *PostService) Update(ctx context.Context, id string, in PostInput) error {
	if !validPostID(id) {
		return common.ErrInvalidBlogID
	}
	if err := Validate(in); err != nil {
		return err
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}

	set := map[string]any{
		models.PostTitle:      in.Title,
		models.PostOverview:   in.Overview,
		models.PostContent:    in.Content,
		models.PostCategory:   in.Category,
		models.PostTags:       in.Tags,
		models.PostUpdateDate: time.Now().UTC(),
	}
	if in.Status != "" {
		set[models.PostStatusKey] = in.Status
	}

	res, err := s.repomanager.Posts().Update(ctx, byPostID(id), docstore.Update{Set: set})
	if err != nil {
		return common.StorageFailure(err)
	}
	if res.MatchedCount == 0 {
		return common.ErrBlogNotFound
	}
	s.invalidate(ctx)
	return nil
}

func (s *PostService) Delete(ctx context.Context, id string) error {
	if !validPostID(id) {
		return common.ErrInvalidBlogID
	}
	res, err := s.repomanager.Posts().Delete(ctx, byPostID(id))
	if err != nil {
		return common.StorageFailure(err)
	}
	if res.DeletedCount == 0 {
		return common.ErrBlogNotFound
	}
	s.invalidate(ctx)
	return nil
}

// Get returns a single post, drafts included.
func (s *PostService) Get(ctx context.Context, id string) (models.Post, error) {
	if !validPostID(id) {
		return models.Post{}, common.ErrInvalidBlogID
	}
	post, found, err := s.repomanager.Posts().FindOne(ctx, byPostID(id))
	if err != nil {
		return models.Post{}, common.StorageFailure(err)
	}
	if !found {
		return models.Post{}, common.ErrBlogNotFound
	}
	return post, nil
}

// List returns every published post.
func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	posts, err := s.repomanager.Posts().Find(ctx, published)
	if err != nil {
		return nil, common.StorageFailure(err)
	}
	return posts, nil
}

// Overviews returns published posts without their content. A failing
// cache is bypassed.
func (s *PostService) Overviews(ctx context.Context) ([]models.Post, error) {
	find := func(ctx context.Context) ([]models.Post, error) {
		return s.repomanager.Posts().Find(ctx, published, docstore.Project(models.PostOverviewFields...))
	}

	var (
		out     []models.Post
		loadErr error
	)
	err := s.cache.FetchJSON(ctx, overviewsCacheKey, &out, func(ctx context.Context) (any, error) {
		posts, err := find(ctx)
		loadErr = err
		return posts, err
	})
	if loadErr != nil {
		return nil, common.StorageFailure(loadErr)
	}
	if err != nil {
		s.logger.Warn(ctx, "overview cache unavailable", "error", err)
		if out, err = find(ctx); err != nil {
			return nil, common.StorageFailure(err)
		}
	}
	if out == nil {
		out = []models.Post{}
	}
	return out, nil
}
