// Package node maps workflow resource/operation requests onto the Fish Audio
// API.
//
// A Batch names one (resource, operation) pair and carries the input
// records. The Dispatcher resolves the pair against a closed route table,
// then runs the matching handler for each record in index order.
package node

import "context"

// Resource is a top-level category of operations.
type Resource string

// Operation is an action within a resource.
type Operation string

// Resources.
const (
	ResourceSpeech     Resource = "speech"
	ResourceVoiceModel Resource = "voiceModel"
	ResourceAccount    Resource = "account"
)

// Operations.
const (
	OperationGenerate   Operation = "generate"
	OperationTranscribe Operation = "transcribe"
	OperationList       Operation = "list"
	OperationGet        Operation = "get"
	OperationCreate     Operation = "create"
	OperationDelete     Operation = "delete"
	OperationGetCredits Operation = "getCredits"
)

// Route is a (resource, operation) pair.
type Route struct {
	Resource  Resource
	Operation Operation
}

func (r Route) String() string {
	return string(r.Resource) + "/" + string(r.Operation)
}

// Known routes.
var (
	RouteSpeechGenerate    = Route{ResourceSpeech, OperationGenerate}
	RouteSpeechTranscribe  = Route{ResourceSpeech, OperationTranscribe}
	RouteVoiceModelList    = Route{ResourceVoiceModel, OperationList}
	RouteVoiceModelGet     = Route{ResourceVoiceModel, OperationGet}
	RouteVoiceModelCreate  = Route{ResourceVoiceModel, OperationCreate}
	RouteVoiceModelDelete  = Route{ResourceVoiceModel, OperationDelete}
	RouteAccountGetCredits = Route{ResourceAccount, OperationGetCredits}
)

type handlerFunc func(ctx context.Context, d *Dispatcher, req OperationRequest, item Item) ([]OperationResult, error)

// routeEntry binds a route to its handler. A route marked once runs a single
// time for the whole batch, using the first item's parameters.
type routeEntry struct {
	handle handlerFunc
	once   bool
}

var routes = map[Route]routeEntry{
	RouteSpeechGenerate:    {handle: executeSpeechGenerate},
	RouteSpeechTranscribe:  {handle: executeSpeechTranscribe},
	RouteVoiceModelList:    {handle: executeVoiceModelList},
	RouteVoiceModelGet:     {handle: executeVoiceModelGet},
	RouteVoiceModelCreate:  {handle: executeVoiceModelCreate},
	RouteVoiceModelDelete:  {handle: executeVoiceModelDelete},
	RouteAccountGetCredits: {handle: executeAccountGetCredits, once: true},
}

// Routes lists every supported route.
func Routes() []Route {
	return []Route{
		RouteSpeechGenerate,
		RouteSpeechTranscribe,
		RouteVoiceModelList,
		RouteVoiceModelGet,
		RouteVoiceModelCreate,
		RouteVoiceModelDelete,
		RouteAccountGetCredits,
	}
}

// Supported reports whether route has a handler.
func Supported(route Route) bool {
	_, ok := routes[route]

	return ok
}

func lookupRoute(route Route) (routeEntry, bool) {
	entry, ok := routes[route]

	return entry, ok
}
