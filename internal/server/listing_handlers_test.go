package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cozystay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultListingFields() map[string]string {
	return map[string]string{
		"title":    "Seaside Cottage",
		"location": "Cornwall",
		"country":  "United Kingdom",
		"price":    "120",
	}
}

func TestCreateListing_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, defaultListingFields(), map[string][]int{
		"mainImage": {128},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/listings/create", body)
	req.Header.Set("Content-Type", contentType)

	resp := env.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var count int64
	require.NoError(t, env.db.Model(&models.Listing{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, env.media.uploads)
}

func TestCreateListing_Success(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "host", models.RoleUser)

	body, contentType := multipartBody(t, defaultListingFields(), map[string][]int{
		"mainImage": {128},
		"images":    {64, 64},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/listings/create", body)
	req.Header.Set("Content-Type", contentType)
	authHeader(req, token)

	resp := env.do(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var listing models.Listing
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &listing))
	assert.Equal(t, "Seaside Cottage", listing.Title)
	assert.Equal(t, 120.0, listing.Price)
	assert.NotEmpty(t, listing.MainImage.URL)
	assert.Len(t, listing.Images, 2)
	assert.Len(t, env.media.uploads, 3)
}

func TestCreateListing_MissingMainImage(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "host", models.RoleUser)

	body, contentType := multipartBody(t, defaultListingFields(), map[string][]int{
		"images": {64},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/listings/create", body)
	req.Header.Set("Content-Type", contentType)
	authHeader(req, token)

	resp := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var count int64
	require.NoError(t, env.db.Model(&models.Listing{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateListing_FileTooLarge(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "host", models.RoleUser)

	body, contentType := multipartBody(t, defaultListingFields(), map[string][]int{
		"mainImage": {maxUploadSize + 1},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/listings/create", body)
	req.Header.Set("Content-Type", contentType)
	authHeader(req, token)

	resp := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"File size too large. Max limit is 10MB per file."}`, readBody(t, resp))
	assert.Empty(t, env.media.uploads)
}

func TestCreateListing_TooManyFiles(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "host", models.RoleUser)

	body, contentType := multipartBody(t, defaultListingFields(), map[string][]int{
		"mainImage": {64},
		"images":    {64, 64, 64, 64, 64}, // one over the limit
	})
	req := httptest.NewRequest(http.MethodPost, "/api/listings/create", body)
	req.Header.Set("Content-Type", contentType)
	authHeader(req, token)

	resp := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Unexpected file field or too many files."}`, readBody(t, resp))
	assert.Empty(t, env.media.uploads)
}

func TestCreateListing_UnexpectedField(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "host", models.RoleUser)

	body, contentType := multipartBody(t, defaultListingFields(), map[string][]int{
		"mainImage": {64},
		"avatar":    {64},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/listings/create", body)
	req.Header.Set("Content-Type", contentType)
	authHeader(req, token)

	resp := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Unexpected file field or too many files."}`, readBody(t, resp))
	assert.Empty(t, env.media.uploads)
}

func TestGetListings_FiltersAndAnnotates(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createUser(t, "host", models.RoleUser)
	env.createListing(t, owner, "Ocean View Villa", 2500)
	env.createListing(t, owner, "Mountain Cabin", 800)

	t.Run("all listings", func(t *testing.T) {
		resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/listings/", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var listings []models.Listing
		require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &listings))
		assert.Len(t, listings, 2)
	})

	t.Run("query filter", func(t *testing.T) {
		resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/listings/?q=ocean", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var listings []models.Listing
		require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &listings))
		require.Len(t, listings, 1)
		assert.Equal(t, "Ocean View Villa", listings[0].Title)
	})

	t.Run("tag filter", func(t *testing.T) {
		resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/listings/?tags=budget", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var listings []models.Listing
		require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &listings))
		require.Len(t, listings, 1)
		assert.Equal(t, "Mountain Cabin", listings[0].Title)
	})

	t.Run("unwired tag returns empty", func(t *testing.T) {
		resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/listings/?tags=pool", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var listings []models.Listing
		require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &listings))
		assert.Empty(t, listings)
	})
}

func TestGetListing_Detail(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createUser(t, "host", models.RoleUser)
	reviewer, _ := env.createUser(t, "guest", models.RoleUser)
	listing := env.createListing(t, owner, "Ocean View Villa", 2500)
	require.NoError(t, env.db.Create(&models.Review{
		ListingID: listing.ID, UserID: reviewer.ID, Rating: 4, Comment: "Great",
	}).Error)

	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/listings/1", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.Listing
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &got))
	assert.Equal(t, "Ocean View Villa", got.Title)
	assert.Equal(t, "host", got.Owner.Username)
	require.Len(t, got.Reviews, 1)
	require.NotNil(t, got.AverageRating)
	assert.InDelta(t, 4.0, *got.AverageRating, 1e-9)
}

func TestGetListing_NotFound(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/api/listings/999", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetMyHotels(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.createUser(t, "alice", models.RoleUser)
	bob, _ := env.createUser(t, "bob", models.RoleUser)
	env.createListing(t, alice, "Alice Place", 100)
	env.createListing(t, bob, "Bob Place", 100)

	req := httptest.NewRequest(http.MethodGet, "/api/listings/my-hotels", nil)
	authHeader(req, aliceToken)
	resp := env.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listings []models.Listing
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &listings))
	require.Len(t, listings, 1)
	assert.Equal(t, "Alice Place", listings[0].Title)
}

func TestUpdateListing_Ownership(t *testing.T) {
	env := newTestEnv(t)
	owner, ownerToken := env.createUser(t, "owner", models.RoleUser)
	_, strangerToken := env.createUser(t, "stranger", models.RoleUser)
	_, managerToken := env.createUser(t, "manager", models.RoleManager)
	env.createListing(t, owner, "Original", 100)

	update := func(token string, body map[string]any) *http.Response {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPut, "/api/listings/1", bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		authHeader(req, token)
		return env.do(t, req)
	}

	resp := update(strangerToken, map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = update(ownerToken, map[string]any{"title": "Renamed", "price": 150})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Listing
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &updated))
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 150.0, updated.Price)

	resp = update(managerToken, map[string]any{"title": "Curated"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteListing_RemovesMedia(t *testing.T) {
	env := newTestEnv(t)
	owner, ownerToken := env.createUser(t, "owner", models.RoleUser)
	listing := env.createListing(t, owner, "Doomed", 100)
	require.NoError(t, env.db.Create(&models.ListingImage{
		ListingID: listing.ID,
		Image:     models.ImageRef{URL: "https://media.test/g.jpg", StorageID: "listings/g.jpg"},
	}).Error)

	req := httptest.NewRequest(http.MethodDelete, "/api/listings/1", nil)
	authHeader(req, ownerToken)
	resp := env.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, env.db.Model(&models.Listing{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.ElementsMatch(t, []string{"listings/main.jpg", "listings/g.jpg"}, env.media.removals)
}

func TestDeleteListing_StrangerForbidden(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createUser(t, "owner", models.RoleUser)
	_, strangerToken := env.createUser(t, "stranger", models.RoleUser)
	env.createListing(t, owner, "Safe", 100)

	req := httptest.NewRequest(http.MethodDelete, "/api/listings/1", nil)
	authHeader(req, strangerToken)
	resp := env.do(t, req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var count int64
	require.NoError(t, env.db.Model(&models.Listing{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Empty(t, env.media.removals)
}
