package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	_ "time/tzdata"

	"github.com/macrolens/mealtracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFoodDataClient struct {
	searchResult *domain.FDCSearchResponse
	searchError  error
	searchCalls  int
}

func (m *mockFoodDataClient) SearchFoods(ctx context.Context, query string) (*domain.FDCSearchResponse, error) {
	m.searchCalls++
	if m.searchError != nil {
		return nil, m.searchError
	}
	return m.searchResult, nil
}

func (m *mockFoodDataClient) GetFoodDetails(ctx context.Context, fdcID int) (*domain.FDCFood, error) {
	return nil, domain.ErrProductNotFound
}

func wholeMilkSearch() *domain.FDCSearchResponse {
	return &domain.FDCSearchResponse{
		Foods: []domain.FDCFood{{
			FdcID:       171265,
			Description: "Milk, whole, 3.25% milkfat",
			DataType:    "SR Legacy",
			Nutrients: []domain.FDCNutrient{
				{NutrientID: 1008, NutrientName: "Energy", UnitName: "KCAL", Value: 61},
				{NutrientID: 1003, NutrientName: "Protein", UnitName: "G", Value: 3.15},
				{NutrientID: 1004, NutrientName: "Total lipid (fat)", UnitName: "G", Value: 3.27},
				{NutrientID: 1005, NutrientName: "Carbohydrate, by difference", UnitName: "G", Value: 4.8},
			},
		}},
		TotalHits: 1,
	}
}

// do sends a request as testUserID and decodes a JSON response into out
func do(t *testing.T, srv *testServer, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	return doAs(t, srv, testUserID, method, path, body, out)
}

// doAs sends a request as userID and decodes a JSON response into out
func doAs(t *testing.T, srv *testServer, userID, method, path string, body interface{}, out interface{}) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

type idResponse struct {
	ID string `json:"id"`
}

type mealResponse struct {
	ID       string                 `json:"id"`
	MealType string                 `json:"mealType"`
	Totals   domain.NutrientProfile `json:"totals"`
	Entries  []struct {
		Kind    string                 `json:"kind"`
		RefID   string                 `json:"refId"`
		Name    string                 `json:"name"`
		Missing bool                   `json:"missing"`
		Totals  domain.NutrientProfile `json:"totals"`
	} `json:"entries"`
}

func seedBreakfast(t *testing.T, srv *testServer) (oatsID, dishID string, meal mealResponse) {
	t.Helper()

	var oats, milk idResponse
	require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/api/v1/foods", map[string]interface{}{
		"name":    "Rolled oats",
		"per100g": map[string]float64{"calories": 380, "protein": 13, "fat": 7, "carbs": 68},
	}, &oats))
	require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/api/v1/foods", map[string]interface{}{
		"name":    "Milk",
		"per100g": map[string]float64{"calories": 60, "protein": 3.2, "fat": 3.3, "carbs": 4.8},
	}, &milk))

	var dish idResponse
	require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/api/v1/dishes", map[string]interface{}{
		"name": "Porridge",
		"ingredients": []map[string]interface{}{
			{"foodItemId": oats.ID, "weightGrams": 40},
			{"foodItemId": milk.ID, "weightGrams": 200},
		},
	}, &dish))

	require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/api/v1/meals", map[string]interface{}{
		"mealType": "breakfast",
		"loggedAt": "2024-03-01T08:00:00Z",
		"entries": []map[string]interface{}{
			{"foodItemId": oats.ID, "weightGrams": 50},
			{"dishId": dish.ID},
		},
	}, &meal))
	return oats.ID, dish.ID, meal
}

func TestMealFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	_, dishID, meal := seedBreakfast(t, srv)

	t.Run("logged meal is returned resolved", func(t *testing.T) {
		assert.Equal(t, "breakfast", meal.MealType)
		require.Len(t, meal.Entries, 2)
		assert.Equal(t, "food", meal.Entries[0].Kind)
		assert.Equal(t, "Rolled oats", meal.Entries[0].Name)
		assert.InDelta(t, 190, meal.Entries[0].Totals.Calories, 1e-9)
		assert.Equal(t, "dish", meal.Entries[1].Kind)
		assert.InDelta(t, 272, meal.Entries[1].Totals.Calories, 1e-9)
		assert.InDelta(t, 462, meal.Totals.Calories, 1e-9)
	})

	t.Run("get meal", func(t *testing.T) {
		var got mealResponse
		require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/meals/"+meal.ID, nil, &got))
		assert.Equal(t, meal.ID, got.ID)
		assert.InDelta(t, 462, got.Totals.Calories, 1e-9)
	})

	t.Run("dish nutrition", func(t *testing.T) {
		var got struct {
			Totals           domain.NutrientProfile `json:"totals"`
			TotalWeightGrams float64                `json:"totalWeightGrams"`
		}
		require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/dishes/"+dishID+"/nutrition", nil, &got))
		assert.InDelta(t, 272, got.Totals.Calories, 1e-9)
		assert.InDelta(t, 240, got.TotalWeightGrams, 1e-9)
	})

	t.Run("catalog search finds foods and dishes", func(t *testing.T) {
		var got struct {
			Results []domain.CatalogMatch `json:"results"`
		}
		require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/catalog/search?q=RI", nil, &got))
		names := make([]string, 0, len(got.Results))
		for _, r := range got.Results {
			names = append(names, r.Name)
		}
		assert.Equal(t, []string{"Porridge"}, names)
	})

	t.Run("day summary", func(t *testing.T) {
		var got struct {
			Date   string                 `json:"date"`
			Totals domain.NutrientProfile `json:"totals"`
			Meals  []mealResponse         `json:"meals"`
		}
		require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/summary/day?date=2024-03-01&tz=UTC", nil, &got))
		assert.Equal(t, "2024-03-01", got.Date)
		assert.InDelta(t, 462, got.Totals.Calories, 1e-9)
		assert.Len(t, got.Meals, 1)

		// 08:00 UTC is still the previous evening in Honolulu
		require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/summary/day?date=2024-03-01&tz=Pacific/Honolulu", nil, &got))
		assert.Zero(t, got.Totals.Calories)
		assert.Empty(t, got.Meals)
	})

	t.Run("day summary defaults to today", func(t *testing.T) {
		var got struct {
			Date   string                 `json:"date"`
			Totals domain.NutrientProfile `json:"totals"`
		}
		require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/summary/day", nil, &got))
		assert.Equal(t, "2024-03-01", got.Date)
		assert.InDelta(t, 462, got.Totals.Calories, 1e-9)

		// midday UTC is already the next day in Kiritimati (UTC+14)
		require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/summary/day?tz=Pacific/Kiritimati", nil, &got))
		assert.Equal(t, "2024-03-02", got.Date)
	})

	t.Run("series sparse and filled", func(t *testing.T) {
		var sparse SeriesResponse
		require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/summary/series?from=2024-02-28&to=2024-03-03&tz=UTC", nil, &sparse))
		require.Len(t, sparse.Days, 1)
		assert.Equal(t, domain.CalendarDate{Year: 2024, Month: 3, Day: 1}, sparse.Days[0].Day)
		assert.InDelta(t, 462, sparse.Totals.Calories, 1e-9)

		var filled SeriesResponse
		require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/summary/series?from=2024-02-28&to=2024-03-03&tz=UTC&fill=true", nil, &filled))
		require.Len(t, filled.Days, 4)
		assert.Equal(t, domain.CalendarDate{Year: 2024, Month: 2, Day: 29}, filled.Days[1].Day)
		assert.Zero(t, filled.Days[1].Totals.Calories)
		assert.InDelta(t, 462, filled.Days[2].Totals.Calories, 1e-9)
	})

	t.Run("other users cannot see the meal", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/meals/"+meal.ID, nil)
		req.Header.Set("X-User-ID", "b1c1a7d2-0f5e-4d0a-8e0e-6a9b8c7d6e5f")
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete meal", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, do(t, srv, "DELETE", "/api/v1/meals/"+meal.ID, nil, nil))
		assert.Equal(t, http.StatusNotFound, do(t, srv, "GET", "/api/v1/meals/"+meal.ID, nil, nil))
		assert.Equal(t, http.StatusNotFound, do(t, srv, "DELETE", "/api/v1/meals/"+meal.ID, nil, nil))
	})
}

func TestLogMealValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"unknown meal type", map[string]interface{}{
			"mealType": "brunch",
			"entries":  []map[string]interface{}{{"dishId": "d"}},
		}},
		{"no entries", map[string]interface{}{
			"mealType": "lunch",
			"entries":  []map[string]interface{}{},
		}},
		{"entry with food and dish", map[string]interface{}{
			"mealType": "lunch",
			"entries":  []map[string]interface{}{{"foodItemId": "f", "dishId": "d", "weightGrams": 10}},
		}},
		{"food entry without weight", map[string]interface{}{
			"mealType": "lunch",
			"entries":  []map[string]interface{}{{"foodItemId": "f"}},
		}},
		{"food entry with negative weight", map[string]interface{}{
			"mealType": "lunch",
			"entries":  []map[string]interface{}{{"foodItemId": "f", "weightGrams": -5}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp map[string]interface{}
			assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", "/api/v1/meals", tt.body, &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}

	t.Run("meal type tag is reported per field", func(t *testing.T) {
		var resp struct {
			Fields map[string]string `json:"fields"`
		}
		do(t, srv, "POST", "/api/v1/meals", tests[0].body, &resp)
		assert.Equal(t, "mealtype", resp.Fields["MealType"])
	})

	t.Run("dangling references are accepted", func(t *testing.T) {
		var meal mealResponse
		require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/api/v1/meals", map[string]interface{}{
			"mealType": "Snack",
			"entries":  []map[string]interface{}{{"foodItemId": "deleted-food", "weightGrams": 30}},
		}, &meal))
		assert.Equal(t, "snack", meal.MealType)
		require.Len(t, meal.Entries, 1)
		assert.True(t, meal.Entries[0].Missing)
		assert.Zero(t, meal.Totals.Calories)
	})
}

func TestSummaryQueryValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{
		"/api/v1/summary/day?date=03/01/2024",
		"/api/v1/summary/day?tz=Mars/Olympus",
		"/api/v1/summary/series?from=2024-03-01",
		"/api/v1/summary/series?from=2024-03-02&to=2024-03-02",
		"/api/v1/summary/series?from=2024-03-01&to=2024-03-02&fill=maybe",
		"/api/v1/summary/series?from=2024-01-01&to=2024-02-02",
		"/api/v1/summary/series?from=0001-01-01&to=9999-12-31&fill=true",
	} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, do(t, srv, "GET", path, nil, nil))
		})
	}
}

func TestSeriesRangeLimit(t *testing.T) {
	srv := newTestServer(t, nil)

	var got SeriesResponse
	require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/summary/series?from=2024-01-01&to=2024-02-01&fill=true", nil, &got))
	assert.Len(t, got.Days, 31)

	var resp map[string]interface{}
	require.Equal(t, http.StatusBadRequest, do(t, srv, "GET", "/api/v1/summary/series?from=2024-01-01&to=2024-02-02&fill=true", nil, &resp))
	assert.Contains(t, resp["error"], "exceeds the limit of 31")
}

func TestCatalogIsolation(t *testing.T) {
	srv := newTestServer(t, nil)
	const otherUser = "b1c1a7d2-0f5e-4d0a-8e0e-6a9b8c7d6e5f"

	var secret idResponse
	require.Equal(t, http.StatusCreated, doAs(t, srv, otherUser, "POST", "/api/v1/foods", map[string]interface{}{
		"name":    "Secret Shake",
		"per100g": map[string]float64{"calories": 999},
	}, &secret))

	var search struct {
		Results []domain.CatalogMatch `json:"results"`
	}
	require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/catalog/search?q=secret", nil, &search))
	assert.Empty(t, search.Results)

	var resp map[string]interface{}
	require.Equal(t, http.StatusBadRequest, do(t, srv, "POST", "/api/v1/meals", map[string]interface{}{
		"mealType": "snack",
		"entries":  []map[string]interface{}{{"foodItemId": secret.ID, "weightGrams": 100}},
	}, &resp))
	assert.NotContains(t, resp["error"], "Secret Shake")

	require.Equal(t, http.StatusBadRequest, do(t, srv, "POST", "/api/v1/dishes", map[string]interface{}{
		"name":        "Borrowed shake",
		"ingredients": []map[string]interface{}{{"foodItemId": secret.ID, "weightGrams": 100}},
	}, nil))

	var meal mealResponse
	require.Equal(t, http.StatusCreated, doAs(t, srv, otherUser, "POST", "/api/v1/meals", map[string]interface{}{
		"mealType": "snack",
		"entries":  []map[string]interface{}{{"foodItemId": secret.ID, "weightGrams": 100}},
	}, &meal))
	assert.InDelta(t, 999, meal.Totals.Calories, 1e-9)
}

func TestCreateCatalogValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", "/api/v1/foods", map[string]interface{}{"name": "x"}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", "/api/v1/foods", map[string]interface{}{
		"name": "Bad", "per100g": map[string]float64{"calories": -1},
	}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", "/api/v1/dishes", map[string]interface{}{
		"name": "Soup", "ingredients": []map[string]interface{}{{"foodItemId": "a", "weightGrams": 0}},
	}, nil))
	assert.Equal(t, http.StatusNotFound, do(t, srv, "GET", "/api/v1/dishes/missing/nutrition", nil, nil))
}

func TestFoodImport(t *testing.T) {
	t.Run("imports the best match per 100 g", func(t *testing.T) {
		client := &mockFoodDataClient{searchResult: wholeMilkSearch()}
		srv := newTestServer(t, client)

		var resp struct {
			Item  domain.FoodItem    `json:"item"`
			Match domain.MatchResult `json:"match"`
		}
		require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/api/v1/foods/import", map[string]string{"productName": "Whole Milk"}, &resp))
		assert.Equal(t, 171265, resp.Match.FdcID)
		assert.Equal(t, testUserID, resp.Item.UserID)
		assert.Equal(t, 61.0, resp.Item.Per100g.Calories)
		assert.NotEmpty(t, resp.Item.ID)

		// the imported item is searchable and the second import hits the cache
		var search struct {
			Results []domain.CatalogMatch `json:"results"`
		}
		require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/v1/catalog/search?q=milk", nil, &search))
		assert.Len(t, search.Results, 1)

		require.Equal(t, http.StatusCreated, do(t, srv, "POST", "/api/v1/foods/import", map[string]string{"productName": "whole milk"}, nil))
		assert.Equal(t, 1, client.searchCalls)
	})

	t.Run("low confidence returns 422 with the match", func(t *testing.T) {
		client := &mockFoodDataClient{searchResult: &domain.FDCSearchResponse{
			Foods: []domain.FDCFood{{FdcID: 99999, Description: "Some Unrelated Food"}},
		}}
		srv := newTestServer(t, client)

		var resp map[string]interface{}
		require.Equal(t, http.StatusUnprocessableEntity, do(t, srv, "POST", "/api/v1/foods/import", map[string]string{"productName": "chocolate cake deluxe premium"}, &resp))
		assert.Equal(t, "Low confidence match - verify the product manually", resp["error"])
		assert.NotNil(t, resp["match"])
	})

	statusCases := []struct {
		err    error
		status int
	}{
		{domain.ErrProductNotFound, http.StatusNotFound},
		{domain.ErrFoodDataFailure, http.StatusBadGateway},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("%w: status 500", domain.ErrFoodDataFailure), http.StatusBadGateway},
	}
	for _, tc := range statusCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			srv := newTestServer(t, &mockFoodDataClient{searchError: tc.err})
			assert.Equal(t, tc.status, do(t, srv, "POST", "/api/v1/foods/import", map[string]string{"productName": "whole milk"}, nil))
		})
	}

	t.Run("missing productName returns 400", func(t *testing.T) {
		srv := newTestServer(t, &mockFoodDataClient{})
		assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", "/api/v1/foods/import", map[string]string{"brand": "Great Value"}, nil))
	})
}
