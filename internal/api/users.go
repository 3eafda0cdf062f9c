// ABOUTME: User, profile, and post handlers under /api/v1
// ABOUTME: Users are created without passwords; login identities come from configuration

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Alex-Zverr/microshop/internal/store"
)

// UserResponse is the JSON form of a user.
type UserResponse struct {
	ID        int64            `json:"id"`
	Username  string           `json:"username"`
	Email     *string          `json:"email"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
	Profile   *ProfileResponse `json:"profile,omitempty"`
	Posts     []PostResponse   `json:"posts,omitempty"`
}

// ProfileResponse is the JSON form of a profile.
type ProfileResponse struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
}

// PostResponse is the JSON form of a post.
type PostResponse struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	CreatedAt time.Time      `json:"created_at"`
	Author    *AuthorSummary `json:"author,omitempty"`
}

// AuthorSummary identifies the author of a post.
type AuthorSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// CreateUserRequest is the body of POST /api/v1/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ProfileRequest is the body of PUT /api/v1/users/{id}/profile.
type ProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
}

// CreatePostsRequest is the body of POST /api/v1/posts. One post is created per title.
type CreatePostsRequest struct {
	UserID int64    `json:"user_id"`
	Titles []string `json:"titles"`
	Body   string   `json:"body"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func userResponse(u *store.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     optional(u.Email),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
	if u.Profile != nil {
		p := profileResponse(u.Profile)
		resp.Profile = &p
	}
	if u.Posts != nil {
		resp.Posts = postResponses(u.Posts)
	}
	return resp
}

func profileResponse(p *store.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		FirstName: optional(p.FirstName),
		LastName:  optional(p.LastName),
		Bio:       optional(p.Bio),
	}
}

func postResponses(posts []*store.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		resp := PostResponse{
			ID:        p.ID,
			UserID:    p.UserID,
			Title:     p.Title,
			Body:      p.Body,
			CreatedAt: p.CreatedAt,
		}
		if p.Author != nil {
			resp.Author = &AuthorSummary{ID: p.Author.ID, Username: p.Author.Username}
		}
		out = append(out, resp)
	}
	return out
}

// handleCreateUser handles POST /api/v1/users.
func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Username) > store.MaxUsernameLength {
		sendJSONError(w, http.StatusUnprocessableEntity, "username must be 1 to 32 characters")
		return
	}

	user := &store.User{Username: req.Username, Email: req.Email, Active: true}
	if err := a.store.CreateUser(r.Context(), user); err != nil {
		a.storeError(w, "user", err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse(user))
}

// handleListUsers handles GET /api/v1/users. Each user carries its posts.
func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.ListUsersWithPosts(r.Context())
	if err != nil {
		a.internalError(w, "failed to list users", err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp := userResponse(u)
		if resp.Posts == nil {
			resp.Posts = []PostResponse{}
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetUser handles GET /api/v1/users/{username}.
func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.store.GetUserByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		a.storeError(w, "user", err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// handleListUserPosts handles GET /api/v1/users/{id}/posts.
func (a *API) handleListUserPosts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		sendJSONError(w, http.StatusUnprocessableEntity, "invalid user id")
		return
	}
	if _, err := a.store.GetUser(r.Context(), id); err != nil {
		a.storeError(w, "user", err)
		return
	}

	posts, err := a.store.ListPostsByUser(r.Context(), id)
	if err != nil {
		a.internalError(w, "failed to list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, postResponses(posts))
}

// handlePutProfile handles PUT /api/v1/users/{id}/profile.
func (a *API) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		sendJSONError(w, http.StatusUnprocessableEntity, "invalid user id")
		return
	}

	var req ProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile := &store.Profile{
		UserID:    id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	}
	if err := a.store.UpsertProfile(r.Context(), profile); err != nil {
		a.storeError(w, "user", err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse(profile))
}

// handleCreatePosts handles POST /api/v1/posts.
func (a *API) handleCreatePosts(w http.ResponseWriter, r *http.Request) {
	var req CreatePostsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID <= 0 || len(req.Titles) == 0 {
		sendJSONError(w, http.StatusUnprocessableEntity, "user_id and at least one title are required")
		return
	}

	posts := make([]*store.Post, 0, len(req.Titles))
	for _, title := range req.Titles {
		if title == "" || len(title) > store.MaxPostTitleLength {
			sendJSONError(w, http.StatusUnprocessableEntity, "titles must be 1 to 100 characters")
			return
		}
		posts = append(posts, &store.Post{Title: title, Body: req.Body})
	}

	if err := a.store.CreatePosts(r.Context(), req.UserID, posts...); err != nil {
		a.storeError(w, "user", err)
		return
	}
	writeJSON(w, http.StatusCreated, postResponses(posts))
}

// handleListPosts handles GET /api/v1/posts. Each post carries its author.
func (a *API) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.store.ListPostsWithAuthors(r.Context())
	if err != nil {
		a.internalError(w, "failed to list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, postResponses(posts))
}
