package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// PropertiesAPI groups the /properties/ endpoints. Listing and detail reads
// are public and sent without a bearer token.
type PropertiesAPI struct{ c *Client }

func (c *Client) Properties() *PropertiesAPI { return &PropertiesAPI{c: c} }

func (p *PropertiesAPI) List(ctx context.Context, params url.Values) (*Response, error) {
	return p.c.Get(ctx, "/properties/", WithParams(params), WithoutAuth())
}

func (p *PropertiesAPI) Get(ctx context.Context, id int64) (*Response, error) {
	return p.c.Get(ctx, propertyPath(id), WithoutAuth())
}

// ListForUser lists properties owned by a user; it requires a session.
func (p *PropertiesAPI) ListForUser(ctx context.Context, userID int64) (*Response, error) {
	return p.c.Get(ctx, "/properties/", WithQuery("user_id", strconv.FormatInt(userID, 10)))
}

// Create accepts a JSON-marshalable value or a *FormData carrying images.
func (p *PropertiesAPI) Create(ctx context.Context, body any) (*Response, error) {
	return p.c.Post(ctx, "/properties/", body)
}

func (p *PropertiesAPI) Update(ctx context.Context, id int64, body any) (*Response, error) {
	return p.c.Patch(ctx, propertyPath(id), body)
}

func (p *PropertiesAPI) Delete(ctx context.Context, id int64) (*Response, error) {
	return p.c.Delete(ctx, propertyPath(id))
}

func (p *PropertiesAPI) Stats(ctx context.Context, id int64) (*Response, error) {
	return p.c.Get(ctx, propertyPath(id)+"stats/")
}

func (p *PropertiesAPI) Share(ctx context.Context, id int64) (*Response, error) {
	return p.c.Post(ctx, propertyPath(id)+"share/", nil)
}

// Shared resolves a share token; it is public.
func (p *PropertiesAPI) Shared(ctx context.Context, token string) (*Response, error) {
	return p.c.Get(ctx, "/shared-properties/"+url.PathEscape(token)+"/", WithoutAuth())
}

func propertyPath(id int64) string {
	return fmt.Sprintf("/properties/%d/", id)
}

type FavoritesAPI struct{ c *Client }

func (c *Client) Favorites() *FavoritesAPI { return &FavoritesAPI{c: c} }

func (f *FavoritesAPI) List(ctx context.Context) (*Response, error) {
	return f.c.Get(ctx, "/favorites/")
}

// AddFavorite saves a property to the signed-in account.
func (f *FavoritesAPI) AddFavorite(ctx context.Context, propertyID int64) error {
	_, err := f.c.Post(ctx, "/favorites/", map[string]int64{"property": propertyID})
	return err
}

func (f *FavoritesAPI) RemoveFavorite(ctx context.Context, propertyID int64) error {
	_, err := f.c.Delete(ctx, fmt.Sprintf("/favorites/%d/", propertyID))
	return err
}

type AlertsAPI struct{ c *Client }

func (c *Client) Alerts() *AlertsAPI { return &AlertsAPI{c: c} }

func (a *AlertsAPI) List(ctx context.Context) (*Response, error) {
	return a.c.Get(ctx, "/property-alerts/")
}

func (a *AlertsAPI) Create(ctx context.Context, body any) (*Response, error) {
	return a.c.Post(ctx, "/property-alerts/", body)
}

func (a *AlertsAPI) Delete(ctx context.Context, id int64) (*Response, error) {
	return a.c.Delete(ctx, fmt.Sprintf("/property-alerts/%d/", id))
}

type AdminAPI struct{ c *Client }

func (c *Client) Admin() *AdminAPI { return &AdminAPI{c: c} }

func (a *AdminAPI) Stats(ctx context.Context) (*Response, error) {
	return a.c.Get(ctx, "/admin/stats/")
}

func (a *AdminAPI) UserStats(ctx context.Context, userID int64) (*Response, error) {
	return a.c.Get(ctx, "/admin/stats/", WithQuery("user_id", strconv.FormatInt(userID, 10)))
}
