package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"basecode-go/pkg/model"
)

var defaultSearch = model.RegionSearch{Page: 1, PageSize: 15, SortBy: "RegionName", SortOrder: model.SortAscending}

func TestRegionList_RequiresSignIn(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/Region/List")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/Account/Login?ReturnUrl=%2FRegion%2FList", rec.Header().Get("Location"))
}

func TestRegionList(t *testing.T) {
	app := newTestApp(t)
	list := model.NewPaginatedList([]model.Region{
		{RegionID: 1, RegionName: "EU", RegionCode: "0", RegionKey: "EU", Description: "Europe"},
		{RegionID: 2, RegionName: "KOREA", RegionCode: "5", RegionKey: "AS", Description: "Korea"},
	}, 2, 1, 15)
	app.regions.On("FindRegions", mock.Anything, defaultSearch).Return(list, nil)

	rec := app.get("/Region/List", signedIn)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Europe")
	assert.Contains(t, body, "KOREA")
	assert.Contains(t, body, "fa-sort-asc")
	assert.Contains(t, body, "SortBy=RegionName&amp;SortOrder=Descending")
	assert.Contains(t, body, "SortBy=RegionCode&amp;SortOrder=Ascending")
	assert.Contains(t, body, "Page 1 of 1 (2 records)")
}

func TestRegionList_SearchPost(t *testing.T) {
	app := newTestApp(t)
	want := model.RegionSearch{RegionName: "eu", Page: 1, PageSize: 100, SortBy: "RegionCode", SortOrder: model.SortDescending}
	app.regions.On("FindRegions", mock.Anything, want).Return(model.NewPaginatedList([]model.Region{}, 0, 1, 100), nil)

	rec := app.post("/Region/List", url.Values{
		"RegionName": {" eu "},
		"PageSize":   {"500"},
		"SortBy":     {"RegionCode"},
		"SortOrder":  {"Descending"},
	}, signedIn)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No records found.")
}

func TestRegionList_DatabaseErrorWithoutExceptionMail(t *testing.T) {
	app := newTestApp(t)
	app.regions.On("FindRegions", mock.Anything, defaultSearch).Return(nil, &pq.Error{Code: "42P01", Message: "relation does not exist"})
	app.exceptions.On("SendExceptionEmail", mock.Anything, "*pq.Error", mock.Anything, mock.Anything).Return(false, errors.New("smtp down"))

	rec := app.get("/Region/List", signedIn)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), model.ErrorDatabase)
}

func regionForm(name, code, key, description string) url.Values {
	return url.Values{
		"RegionName":  {name},
		"RegionCode":  {code},
		"RegionKey":   {key},
		"Description": {description},
	}
}

func TestRegionCreate_FieldValidation(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{
			name: "missing name",
			form: regionForm("", "0", "EU", ""),
			want: "The Region field is required.",
		},
		{
			name: "code too long",
			form: regionForm("EU", strings.Repeat("x", 51), "EU", ""),
			want: "The Region Code must be at least 1 and at max 50 characters long.",
		},
		{
			name: "description too long",
			form: regionForm("EU", "0", "EU", strings.Repeat("d", 101)),
			want: "The Description must be at least 0 and at max 100 characters long.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			rec := app.post("/Region/Create", tt.form, signedIn)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestRegionCreate_WhitespaceOnlyFields(t *testing.T) {
	app := newTestApp(t)

	rec := app.post("/Region/Create", regionForm("   ", " \t ", "  ", ""), signedIn)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "The Region field is required.")
	assert.Contains(t, body, "The Region Code field is required.")
	assert.Contains(t, body, "The Region Key field is required.")
	app.rules.AssertNotCalled(t, "CanAdd", mock.Anything, mock.Anything)
	app.regions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegionEdit_WhitespaceOnlyName(t *testing.T) {
	app := newTestApp(t)
	form := regionForm("  ", "1", "EU", "")
	form.Set("RegionId", "1")
	form.Set("RowVersion", model.EncodeRowVersion(2))

	rec := app.post("/Region/Edit", form, signedIn)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "The Region field is required.")
	app.regions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRegionCreate_Duplicate(t *testing.T) {
	app := newTestApp(t)
	app.rules.On("CanAdd", mock.Anything, &model.Region{RegionName: "EU", RegionCode: "0", RegionKey: "EU"}).
		Return(model.NewValidationResult(model.ErrorRecordExists), nil)

	rec := app.post("/Region/Create", regionForm(" EU ", "0", "EU", ""), signedIn)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), model.ErrorRecordExists)
}

func TestRegionCreate_Success(t *testing.T) {
	app := newTestApp(t)
	app.rules.On("CanAdd", mock.Anything, mock.AnythingOfType("*model.Region")).Return(nil, nil)
	app.regions.On("Create", mock.Anything, mock.MatchedBy(func(r *model.Region) bool {
		return r.RegionName == "ASIA" && r.RegionID == 0 && r.RowVersion == 0
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Region).RegionID = 3
	}).Return(nil)

	// IsNew drops the id and version of a region deleted during an edit
	form := regionForm("ASIA", "9", "AS", "Asia")
	form.Set("IsNew", "true")
	form.Set("RegionId", "7")
	form.Set("RowVersion", model.EncodeRowVersion(4))

	rec := app.post("/Region/Create", form, signedIn)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/Region/List", rec.Header().Get("Location"))
	require.NotNil(t, cookieNamed(rec, sessionCookie))

	// the flash is shown once on the next page
	app.regions.On("FindRegions", mock.Anything, defaultSearch).Return(model.NewPaginatedList([]model.Region{}, 0, 1, 15), nil)
	next := app.get("/Region/List", signedIn, withCookies([]*http.Cookie{cookieNamed(rec, sessionCookie)}))
	assert.Contains(t, next.Body.String(), model.RecordSuccessAdd)
}

func TestRegionEdit_Get(t *testing.T) {
	app := newTestApp(t)
	app.regions.On("Find", mock.Anything, 1).Return(&model.Region{RegionID: 1, RegionName: "EU", RegionCode: "0", RegionKey: "EU", RowVersion: 3}, nil)
	app.regions.On("Find", mock.Anything, 9).Return(nil, nil)

	rec := app.get("/Region/Edit/1", signedIn)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="EU"`)
	assert.Contains(t, body, `name="RowVersion" value="`+model.EncodeRowVersion(3)+`"`)
	assert.Contains(t, body, `action="/Region/Edit"`)

	rec = app.get("/Region/Edit/9", signedIn)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/Region/List", rec.Header().Get("Location"))
}

func editForm(id, version string) url.Values {
	form := regionForm("EU", "1", "EU", "Europe")
	form.Set("RegionId", id)
	form.Set("RowVersion", version)
	return form
}

func TestRegionEdit_Conflict(t *testing.T) {
	app := newTestApp(t)
	stored := &model.Region{RegionID: 1, RegionName: "EU", RegionCode: "0", RegionKey: "EU", Description: "Europe", RowVersion: 3}
	app.regions.On("Find", mock.Anything, 1).Return(stored, nil)
	app.rules.On("CanUpdate", mock.Anything, mock.AnythingOfType("*model.Region")).Return(nil, nil)
	app.regions.On("Update", mock.Anything, mock.MatchedBy(func(r model.Region) bool { return r.RowVersion == 2 })).
		Return(&model.UpdateRegionResult{
			ValidationResults: []model.ValidationResult{
				{MemberName: "RegionCode", Message: "Region Code current value: 0"},
				{Message: model.RegionModified},
			},
			RowVersion: 3,
		}, nil)

	rec := app.post("/Region/Edit", editForm("1", model.EncodeRowVersion(2)), signedIn)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Region Code current value: 0")
	assert.Contains(t, body, "was modified by another user")
	assert.Contains(t, body, `name="RowVersion" value="`+model.EncodeRowVersion(3)+`"`)
}

func TestRegionEdit_DeletedByAnotherUser(t *testing.T) {
	app := newTestApp(t)
	app.regions.On("Find", mock.Anything, 1).Return(nil, nil)

	rec := app.post("/Region/Edit", editForm("1", model.EncodeRowVersion(2)), signedIn)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "The region was deleted by another user. If you want to create this record, click Save button.")
	assert.Contains(t, body, `action="/Region/Create"`)
	assert.Contains(t, body, `name="IsNew" value="true"`)
}

func TestRegionEdit_Success(t *testing.T) {
	app := newTestApp(t)
	app.regions.On("Find", mock.Anything, 1).Return(&model.Region{RegionID: 1, RowVersion: 2}, nil)
	app.rules.On("CanUpdate", mock.Anything, mock.AnythingOfType("*model.Region")).Return(nil, nil)
	app.regions.On("Update", mock.Anything, mock.AnythingOfType("model.Region")).Return(&model.UpdateRegionResult{RowVersion: 3}, nil)

	rec := app.post("/Region/Edit", editForm("1", model.EncodeRowVersion(2)), signedIn)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/Region/List", rec.Header().Get("Location"))
}

func TestRegionEdit_NameTaken(t *testing.T) {
	app := newTestApp(t)
	app.regions.On("Find", mock.Anything, 1).Return(&model.Region{RegionID: 1, RowVersion: 2}, nil)
	app.rules.On("CanUpdate", mock.Anything, mock.AnythingOfType("*model.Region")).Return(model.NewValidationResult(model.ErrorRecordExists), nil)

	rec := app.post("/Region/Edit", editForm("1", model.EncodeRowVersion(2)), signedIn)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), model.ErrorRecordExists)
}

func TestRegionDelete_Modal(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/Region/Delete?id=2&name=KOREA", signedIn)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Are you sure you want to delete the &#39;KOREA&#39; record?")
	assert.Contains(t, body, `action="/Region/Delete/2"`)
	assert.NotContains(t, body, "<html", "partials render without the layout")
}

func TestRegionDelete_ModalKeepsPendingFlash(t *testing.T) {
	app := newTestApp(t)
	app.rules.On("CanDelete", mock.Anything, 1).Return(model.NewValidationResult(model.ErrorRecordInUse), nil)

	rec := app.post("/Region/Delete/1", url.Values{}, signedIn)
	flash := cookieNamed(rec, sessionCookie)
	require.NotNil(t, flash)

	modal := app.get("/Region/Delete?id=2&name=KOREA", signedIn, withCookies([]*http.Cookie{flash}))
	require.Equal(t, http.StatusOK, modal.Code)
	assert.Nil(t, cookieNamed(modal, sessionCookie), "the modal leaves the session untouched")
	assert.NotContains(t, modal.Body.String(), model.ErrorRecordInUse)

	app.regions.On("FindRegions", mock.Anything, defaultSearch).Return(model.NewPaginatedList([]model.Region{}, 0, 1, 15), nil)
	next := app.get("/Region/List", signedIn, withCookies([]*http.Cookie{flash}))
	assert.Contains(t, next.Body.String(), model.ErrorRecordInUse)
}

func TestRegionDelete(t *testing.T) {
	app := newTestApp(t)
	app.rules.On("CanDelete", mock.Anything, 1).Return(model.NewValidationResult(model.ErrorRecordInUse), nil)
	app.rules.On("CanDelete", mock.Anything, 2).Return(nil, nil)
	app.regions.On("DeleteByID", mock.Anything, 2).Return(nil)

	rec := app.post("/Region/Delete/1", url.Values{}, signedIn)
	assert.Equal(t, http.StatusFound, rec.Code)
	flash := cookieNamed(rec, sessionCookie)
	require.NotNil(t, flash)

	app.regions.On("FindRegions", mock.Anything, defaultSearch).Return(model.NewPaginatedList([]model.Region{}, 0, 1, 15), nil)
	next := app.get("/Region/List", signedIn, withCookies([]*http.Cookie{flash}))
	assert.Contains(t, next.Body.String(), model.ErrorRecordInUse)

	rec = app.post("/Region/Delete/2", url.Values{}, signedIn)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/Region/List", rec.Header().Get("Location"))
}

func TestGetRegions(t *testing.T) {
	app := newTestApp(t)
	app.regions.On("GetRegionDropdownItems", mock.Anything, "2").Return([]model.SelectListItem{
		{Text: "EU", Value: "1"},
		{Text: "KOREA", Value: "2", Selected: true},
	}, nil)

	rec := app.get("/api/regions?selected=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"Text":"EU","Value":"1","Selected":false},{"Text":"KOREA","Value":"2","Selected":true}]`, rec.Body.String())
}
