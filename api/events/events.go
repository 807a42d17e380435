// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/logdb"
)

type Events struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, logsLimit uint64) *Events {
	return &Events{
		db,
		logsLimit,
	}
}

// FilteredEvent is a stored event as served.
type FilteredEvent struct {
	Seq     uint64            `json:"seq"`
	Address farm.Address      `json:"address"`
	Name    string            `json:"name"`
	Account *farm.Address     `json:"account,omitempty"`
	Token   *farm.Address     `json:"token,omitempty"`
	Values  map[string]string `json:"values,omitempty"`
	Time    uint64            `json:"time"`
}

func convertEvent(ev *logdb.Event) *FilteredEvent {
	fe := &FilteredEvent{
		Seq:     ev.Seq,
		Address: ev.Address,
		Name:    ev.Name,
		Values:  ev.Values,
		Time:    ev.Time,
	}
	if !ev.Account.IsZero() {
		account := ev.Account
		fe.Account = &account
	}
	if !ev.Token.IsZero() {
		token := ev.Token
		fe.Token = &token
	}
	return fe
}

func parseAddress(q url.Values, key string) (*farm.Address, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	addr, err := farm.ParseAddress(s)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, key))
	}
	return &addr, nil
}

func parseUint(q url.Values, key string, def uint64) (uint64, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, key))
	}
	return v, nil
}

// parseFilter reads the filter from the query string.
func (e *Events) parseFilter(q url.Values) (*logdb.EventFilter, error) {
	criteria := &logdb.EventCriteria{Name: q.Get("name")}
	var err error
	if criteria.Address, err = parseAddress(q, "campaign"); err != nil {
		return nil, err
	}
	if criteria.Account, err = parseAddress(q, "account"); err != nil {
		return nil, err
	}
	if criteria.Token, err = parseAddress(q, "token"); err != nil {
		return nil, err
	}

	filter := &logdb.EventFilter{CriteriaSet: []*logdb.EventCriteria{criteria}}
	switch q.Get("order") {
	case "", string(logdb.ASC):
		filter.Order = logdb.ASC
	case string(logdb.DESC):
		filter.Order = logdb.DESC
	default:
		return nil, utils.BadRequest(fmt.Errorf("order: must be %v or %v", logdb.ASC, logdb.DESC))
	}

	if q.Has("from") || q.Has("to") {
		from, err := parseUint(q, "from", 0)
		if err != nil {
			return nil, err
		}
		to, err := parseUint(q, "to", math.MaxInt64)
		if err != nil {
			return nil, err
		}
		to = min(to, math.MaxInt64)
		if from > to {
			return nil, utils.BadRequest(errors.New("to must be greater than or equal to from"))
		}
		filter.Range = &logdb.Range{From: from, To: to}
	}

	offset, err := parseUint(q, "offset", 0)
	if err != nil {
		return nil, err
	}
	if offset > math.MaxInt64 {
		return nil, utils.BadRequest(fmt.Errorf("offset exceeds the maximum allowed value of %d", int64(math.MaxInt64)))
	}
	// one more than the limit detects result sets that need paging
	limit, err := parseUint(q, "limit", e.limit+1)
	if err != nil {
		return nil, err
	}
	if q.Has("limit") && limit > e.limit {
		return nil, utils.Forbidden(fmt.Errorf("limit exceeds the maximum allowed value of %d", e.limit))
	}
	filter.Options = &logdb.Options{Offset: offset, Limit: limit}
	return filter, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := e.parseFilter(req.URL.Query())
	if err != nil {
		return err
	}
	events, err := e.db.FilterEvents(req.Context(), filter)
	if err != nil {
		return err
	}
	if uint64(len(events)) > e.limit {
		return utils.Forbidden(fmt.Errorf("the number of filtered events exceeds the maximum allowed value of %d, please use pagination", e.limit))
	}
	fes := make([]*FilteredEvent, len(events))
	for i, ev := range events {
		fes[i] = convertEvent(ev)
	}
	return utils.WriteJSON(w, fes)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /logs/event").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
