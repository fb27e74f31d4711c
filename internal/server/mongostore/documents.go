package mongostore

import (
	"time"

	"github.com/artpar/httphub/internal/core"
	"github.com/artpar/httphub/internal/hub"
	"github.com/artpar/httphub/internal/server"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	OrgName   string             `bson:"orgName"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d userDoc) record() server.UserRecord {
	return server.UserRecord{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		OrgName:      d.OrgName,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type collectionDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	CreatedBy   primitive.ObjectID   `bson:"createdBy"`
	Requests    []primitive.ObjectID `bson:"requests"`
	CreatedAt   time.Time            `bson:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"`
}

func (d collectionDoc) model() hub.Collection {
	ids := make([]string, len(d.Requests))
	for i, id := range d.Requests {
		ids[i] = id.Hex()
	}
	return hub.Collection{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		CreatedBy:   d.CreatedBy.Hex(),
		Requests:    ids,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type keyValueDoc struct {
	Key   string `bson:"key"`
	Value string `bson:"value"`
}

type formFieldDoc struct {
	Key   string `bson:"key"`
	Value string `bson:"value"`
	Type  string `bson:"type"`
}

type bodyDoc struct {
	Mode     string         `bson:"mode"`
	Raw      string         `bson:"raw"`
	RawType  string         `bson:"rawType"`
	FormData []formFieldDoc `bson:"formdata"`
}

type basicDoc struct {
	Username string `bson:"username"`
	Password string `bson:"password"`
}

type tokenDoc struct {
	Token string `bson:"token"`
}

type apiKeyDoc struct {
	Key   string `bson:"key"`
	Value string `bson:"value"`
	In    string `bson:"in"`
}

type authDoc struct {
	Type   string     `bson:"type"`
	Basic  *basicDoc  `bson:"basic,omitempty"`
	Bearer *tokenDoc  `bson:"bearer,omitempty"`
	OAuth2 *tokenDoc  `bson:"oauth2,omitempty"`
	APIKey *apiKeyDoc `bson:"apiKey,omitempty"`
}

type requestDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Method      string             `bson:"method"`
	URL         string             `bson:"url"`
	Headers     []keyValueDoc      `bson:"headers"`
	QueryParams []keyValueDoc      `bson:"queryParams"`
	Body        bodyDoc            `bson:"body"`
	Auth        authDoc            `bson:"auth"`
	Collection  primitive.ObjectID `bson:"collection"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d requestDoc) model() hub.SavedRequest {
	return hub.SavedRequest{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Method:      d.Method,
		URL:         d.URL,
		Headers:     pairsFromDocs(d.Headers),
		QueryParams: pairsFromDocs(d.QueryParams),
		Body:        bodyFromDoc(d.Body),
		Auth:        authFromDoc(d.Auth),
		Collection:  d.Collection.Hex(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func newRequestDoc(r hub.SavedRequest, collection primitive.ObjectID, now time.Time) requestDoc {
	return requestDoc{
		Name:        r.Name,
		Method:      r.Method,
		URL:         r.URL,
		Headers:     docsFromPairs(r.Headers),
		QueryParams: docsFromPairs(r.QueryParams),
		Body:        docFromBody(r.Body),
		Auth:        docFromAuth(r.Auth),
		Collection:  collection,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func docsFromPairs(pairs []core.KeyValue) []keyValueDoc {
	out := make([]keyValueDoc, len(pairs))
	for i, kv := range pairs {
		out[i] = keyValueDoc{Key: kv.Key, Value: kv.Value}
	}
	return out
}

func pairsFromDocs(docs []keyValueDoc) []core.KeyValue {
	out := make([]core.KeyValue, len(docs))
	for i, d := range docs {
		out[i] = core.KeyValue{Key: d.Key, Value: d.Value}
	}
	return out
}

func docFromBody(b hub.RequestBody) bodyDoc {
	fields := make([]formFieldDoc, len(b.FormData))
	for i, f := range b.FormData {
		fields[i] = formFieldDoc{Key: f.Key, Value: f.Value, Type: f.Type}
	}
	return bodyDoc{Mode: b.Mode, Raw: b.Raw, RawType: b.RawType, FormData: fields}
}

func bodyFromDoc(d bodyDoc) hub.RequestBody {
	fields := make([]hub.FormField, len(d.FormData))
	for i, f := range d.FormData {
		fields[i] = hub.FormField{Key: f.Key, Value: f.Value, Type: f.Type}
	}
	return hub.RequestBody{Mode: d.Mode, Raw: d.Raw, RawType: d.RawType, FormData: fields}
}

func docFromAuth(a hub.RequestAuth) authDoc {
	d := authDoc{Type: a.Type}
	if a.Basic != nil {
		d.Basic = &basicDoc{Username: a.Basic.Username, Password: a.Basic.Password}
	}
	if a.Bearer != nil {
		d.Bearer = &tokenDoc{Token: a.Bearer.Token}
	}
	if a.OAuth2 != nil {
		d.OAuth2 = &tokenDoc{Token: a.OAuth2.Token}
	}
	if a.APIKey != nil {
		d.APIKey = &apiKeyDoc{Key: a.APIKey.Key, Value: a.APIKey.Value, In: a.APIKey.In}
	}
	return d
}

func authFromDoc(d authDoc) hub.RequestAuth {
	a := hub.RequestAuth{Type: d.Type}
	if d.Basic != nil {
		a.Basic = &hub.BasicCredentials{Username: d.Basic.Username, Password: d.Basic.Password}
	}
	if d.Bearer != nil {
		a.Bearer = &hub.TokenCredentials{Token: d.Bearer.Token}
	}
	if d.OAuth2 != nil {
		a.OAuth2 = &hub.TokenCredentials{Token: d.OAuth2.Token}
	}
	if d.APIKey != nil {
		a.APIKey = &hub.APIKeyCredentials{Key: d.APIKey.Key, Value: d.APIKey.Value, In: d.APIKey.In}
	}
	return a
}
