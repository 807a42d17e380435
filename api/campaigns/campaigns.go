// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaigns

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/builtin/campaign"
	"github.com/vechain/farm/builtin/factory"
	"github.com/vechain/farm/farm"
)

// Source resolves deployed campaigns.
type Source interface {
	Campaigns() ([]farm.Address, error)
	Campaign(addr farm.Address) (*campaign.Campaign, error)
}

type Campaigns struct {
	source Source
}

func New(source Source) *Campaigns {
	return &Campaigns{source}
}

func (c *Campaigns) lookup(req *http.Request) (*campaign.Campaign, error) {
	addr, err := farm.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "address"))
	}
	cp, err := c.source.Campaign(addr)
	if err != nil {
		if errors.Is(err, factory.ErrCampaignNotFound) {
			return nil, utils.NotFound(err)
		}
		return nil, err
	}
	return cp, nil
}

func (c *Campaigns) handleList(w http.ResponseWriter, _ *http.Request) error {
	addrs, err := c.source.Campaigns()
	if err != nil {
		return err
	}
	list := make([]*Summary, 0, len(addrs))
	for _, addr := range addrs {
		cp, err := c.source.Campaign(addr)
		if err != nil {
			return err
		}
		s, err := cp.Summarize()
		if err != nil {
			return err
		}
		list = append(list, convertSummary(s))
	}
	return utils.WriteJSON(w, list)
}

func (c *Campaigns) handleGet(w http.ResponseWriter, req *http.Request) error {
	cp, err := c.lookup(req)
	if err != nil {
		return err
	}
	s, err := cp.Summarize()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertSummary(s))
}

func (c *Campaigns) handleGetRewards(w http.ResponseWriter, req *http.Request) error {
	cp, err := c.lookup(req)
	if err != nil {
		return err
	}
	infos, err := cp.Rewards()
	if err != nil {
		return err
	}
	list := make([]*Reward, 0, len(infos))
	for _, info := range infos {
		r, err := convertReward(info.Token, info.Reward, info.Status)
		if err != nil {
			return err
		}
		list = append(list, r)
	}
	return utils.WriteJSON(w, list)
}

func (c *Campaigns) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	cp, err := c.lookup(req)
	if err != nil {
		return err
	}
	account, err := farm.ParseAddress(mux.Vars(req)["account"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "account"))
	}
	balance, accounts, err := cp.Accounts(account)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertAccount(balance, accounts))
}

func (c *Campaigns) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /campaigns").
		HandlerFunc(utils.WrapHandlerFunc(c.handleList))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /campaigns/{address}").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGet))
	sub.Path("/{address}/rewards").
		Methods(http.MethodGet).
		Name("GET /campaigns/{address}/rewards").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetRewards))
	sub.Path("/{address}/accounts/{account}").
		Methods(http.MethodGet).
		Name("GET /campaigns/{address}/accounts/{account}").
		HandlerFunc(utils.WrapHandlerFunc(c.handleGetAccount))
}
