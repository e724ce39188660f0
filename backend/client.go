package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"geoconsole/config"
	"geoconsole/errs"
	"geoconsole/metrics"
	"geoconsole/models"

	"github.com/lancer-kit/armory/api/httpx"
	"github.com/pkg/errors"
)

// maxErrorBody bounds how much of a failed response is read to find the error envelope.
const maxErrorBody = 64 << 10

// API is the upstream surface used by the console.
type API interface {
	ListTeams(ctx context.Context, session models.Session) ([]models.Team, error)
	UpdateTeam(ctx context.Context, session models.Session, team models.Team) (models.Team, error)
	DeleteTeam(ctx context.Context, session models.Session, teamID string) error

	ListKeys(ctx context.Context, session models.Session, teamID string) ([]models.Key, error)
	CreateKey(ctx context.Context, session models.Session, teamID, name string) (CreateResult[models.Key], error)
	UpdateKey(ctx context.Context, session models.Session, teamID string, key models.Key) (models.Key, error)
	DeleteKey(ctx context.Context, session models.Session, teamID, keyID string) error

	ListDatasets(ctx context.Context, session models.Session, teamID string) ([]models.Dataset, error)
	CreateDataset(ctx context.Context, session models.Session, teamID, name string) (CreateResult[models.Dataset], error)
	GetDataset(ctx context.Context, session models.Session, id string) (models.Dataset, error)
	UpdateDataset(ctx context.Context, session models.Session, dataset models.Dataset) (models.Dataset, error)
	DownloadDataset(ctx context.Context, id string) ([]byte, error)
	DownloadURL(id string) string
}

// CreateResult mirrors the creation envelope: either Data or the server's
// error code and message.
type CreateResult[T any] struct {
	Error   bool   `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// Client talks to the upstream REST API, forwarding the session identity token.
type Client struct {
	baseURL   string
	publicURL string
	timeout   time.Duration
}

func NewClient(cfg config.Upstream) *Client {
	return &Client{
		baseURL:   cfg.BaseURL(),
		publicURL: cfg.DownloadBaseURL(),
		timeout:   cfg.RequestTimeout(),
	}
}

func (c *Client) ListTeams(ctx context.Context, session models.Session) ([]models.Team, error) {
	var teams []models.Team
	err := c.do(ctx, models.ResourceTeams, http.MethodGet, "/teams", nil, session.Token, &teams)
	return teams, err
}

func (c *Client) UpdateTeam(ctx context.Context, session models.Session, team models.Team) (models.Team, error) {
	var updated models.Team
	err := c.do(ctx, models.ResourceTeams, http.MethodPut,
		"/teams/"+url.PathEscape(team.TeamID), team.Update(), session.Token, &updated)
	if err != nil {
		return models.Team{}, err
	}
	if updated.TeamID == "" {
		updated.TeamID = team.TeamID
	}
	return updated, nil
}

func (c *Client) DeleteTeam(ctx context.Context, session models.Session, teamID string) error {
	return c.do(ctx, models.ResourceTeams, http.MethodDelete,
		"/teams/"+url.PathEscape(teamID), nil, session.Token, nil)
}

func (c *Client) ListKeys(ctx context.Context, session models.Session, teamID string) ([]models.Key, error) {
	var keys []models.Key
	err := c.do(ctx, models.ResourceKeys, http.MethodGet, keysPath(teamID), nil, session.Token, &keys)
	return keys, err
}

func (c *Client) CreateKey(ctx context.Context, session models.Session, teamID, name string) (CreateResult[models.Key], error) {
	return create[models.Key](ctx, c, models.ResourceKeys, keysPath(teamID), name, session.Token)
}

func (c *Client) UpdateKey(ctx context.Context, session models.Session, teamID string, key models.Key) (models.Key, error) {
	var updated models.Key
	err := c.do(ctx, models.ResourceKeys, http.MethodPut,
		keysPath(teamID)+"/"+url.PathEscape(key.KeyID), key.Update(), session.Token, &updated)
	if err != nil {
		return models.Key{}, err
	}
	if updated.KeyID == "" {
		updated.KeyID = key.KeyID
	}
	return updated, nil
}

func (c *Client) DeleteKey(ctx context.Context, session models.Session, teamID, keyID string) error {
	return c.do(ctx, models.ResourceKeys, http.MethodDelete,
		keysPath(teamID)+"/"+url.PathEscape(keyID), nil, session.Token, nil)
}

func (c *Client) ListDatasets(ctx context.Context, session models.Session, teamID string) ([]models.Dataset, error) {
	var datasets []models.Dataset
	err := c.do(ctx, models.ResourceDatasets, http.MethodGet, datasetsPath(teamID), nil, session.Token, &datasets)
	return datasets, err
}

func (c *Client) CreateDataset(ctx context.Context, session models.Session, teamID, name string) (CreateResult[models.Dataset], error) {
	return create[models.Dataset](ctx, c, models.ResourceDatasets, datasetsPath(teamID), name, session.Token)
}

func (c *Client) GetDataset(ctx context.Context, session models.Session, id string) (models.Dataset, error) {
	var dataset models.Dataset
	err := c.do(ctx, models.ResourceDatasets, http.MethodGet, "/geojsons/"+url.PathEscape(id), nil, session.Token, &dataset)
	return dataset, err
}

func (c *Client) UpdateDataset(ctx context.Context, session models.Session, dataset models.Dataset) (models.Dataset, error) {
	var updated models.Dataset
	err := c.do(ctx, models.ResourceDatasets, http.MethodPut,
		"/geojsons/"+url.PathEscape(dataset.ID), dataset.Update(), session.Token, &updated)
	if err != nil {
		return models.Dataset{}, err
	}
	if updated.ID == "" {
		updated.ID = dataset.ID
	}
	return updated, nil
}

// DownloadURL is the public, unauthenticated GeoJSON location of a dataset.
func (c *Client) DownloadURL(id string) string {
	return c.publicURL + "/geojsons/pub/" + url.PathEscape(id)
}

func (c *Client) DownloadDataset(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.send(ctx, "download", http.MethodGet, c.DownloadURL(id), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, failure(resp)
	}

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.Network, resp.StatusCode, errors.Wrap(err, "failed to read download body"))
	}
	return raw, nil
}

func keysPath(teamID string) string {
	return "/teams/" + url.PathEscape(teamID) + "/keys"
}

func datasetsPath(teamID string) string {
	return "/teams/" + url.PathEscape(teamID) + "/geosearch"
}

// create posts a new record. The reply is the creation envelope at any
// status; an error envelope on a >= 400 response arrives as a ServerError.
func create[T any](ctx context.Context, c *Client, resource models.Resource, path, name, token string) (CreateResult[T], error) {
	var result CreateResult[T]
	err := c.do(ctx, resource, http.MethodPost, path, models.CreateRequest{Name: name}, token, &result)

	var serverErr *errs.ServerError
	if errors.As(err, &serverErr) {
		return CreateResult[T]{Error: true, Code: serverErr.Code, Message: serverErr.Message}, nil
	}
	if err != nil {
		return CreateResult[T]{}, err
	}
	if result.Error {
		var empty T
		result.Data = empty
	}
	return result, nil
}

// do issues a JSON request and decodes a successful body into dest (when not nil).
func (c *Client) do(ctx context.Context, resource models.Resource, method, path string,
	body interface{}, token string, dest interface{}) error {
	resp, err := c.send(ctx, string(resource), method, c.baseURL+path, body, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return failure(resp)
	}
	if dest == nil {
		return nil
	}

	if err = httpx.NewXClient().ParseJSONResult(resp, dest); err != nil {
		return errs.New(errs.Unknown, resp.StatusCode, errors.Wrap(err, "malformed response body"))
	}
	return nil
}

type sendResult struct {
	resp *http.Response
	err  error
}

// send runs the request bounded by ctx and the configured timeout. The httpx
// client is not context aware, so an abandoned response is drained in the background.
func (c *Client) send(ctx context.Context, resource, method, target string, body interface{}, token string) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.New(errs.Network, 0, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	headers := map[string]string{}
	if token != "" {
		headers[models.AuthorizationHeader] = token
	}

	done := make(chan sendResult, 1)
	go func() {
		resp, err := httpx.NewXClient().RequestJSON(method, target, body, headers)
		done <- sendResult{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if res := <-done; res.resp != nil {
				_ = res.resp.Body.Close()
			}
		}()
		metrics.ObserveUpstream(resource, method, "timeout")
		return nil, errs.New(errs.Network, 0, ctx.Err())
	case res := <-done:
		if res.err != nil {
			metrics.ObserveUpstream(resource, method, "transport")
			return nil, errs.New(errs.Network, 0, errors.Wrapf(res.err, "%s %s", method, target))
		}
		metrics.ObserveUpstream(resource, method, strconv.Itoa(res.resp.StatusCode))
		return res.resp, nil
	}
}

// failure turns a >= 400 response into a ServerError when the body carries
// the error envelope, a classified Error otherwise.
func failure(resp *http.Response) error {
	raw, _ := ioutil.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	envelope := new(models.ErrorResponse)
	if err := json.Unmarshal(raw, envelope); err == nil && (envelope.Code != "" || envelope.Message != "") {
		return &errs.ServerError{Status: resp.StatusCode, Code: envelope.Code, Message: envelope.Message}
	}

	classified := errs.FromStatus(resp.StatusCode)
	text := strings.TrimSpace(string(raw))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return errs.New(classified.Code, resp.StatusCode, fmt.Errorf("upstream responded %d: %s", resp.StatusCode, text))
}
