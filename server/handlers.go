package server

import (
	"encoding/json"
	"net/http"

	"github.com/arduwire/arduwire/hardware"
	"github.com/arduwire/arduwire/registry"
	"github.com/arduwire/arduwire/session"
	"github.com/arduwire/arduwire/store"
	"github.com/julienschmidt/httprouter"
	"github.com/samber/lo"
)

type statusResponse struct {
	Ready  bool   `json:"ready"`
	Board  string `json:"board,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func newStatusResponse(status session.Status) statusResponse {
	resp := statusResponse{Ready: status.Ready(), Board: status.Board}
	if status.Reason != nil {
		resp.Reason = status.Reason.Error()
	}

	return resp
}

type pinValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func (s *Server) getBoard(res http.ResponseWriter, req *http.Request) {
	config, err := s.Store.BoardConfig()
	if err != nil {
		respondErr(res, err)
		return
	}

	respond(res, config, http.StatusOK)
}

func (s *Server) putBoard(res http.ResponseWriter, req *http.Request) {
	var config hardware.Config
	if err := json.NewDecoder(req.Body).Decode(&config); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}

	if _, err := hardware.ParseVariant(string(config.Variant)); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}

	if config.Port == "" {
		config.Port = hardware.DefaultPort()
	}

	if config.SyncDelay == 0 {
		config.SyncDelay = hardware.DefaultSyncDelay
	}

	if err := s.Store.PutBoardConfig(config); err != nil {
		respond(res, err, http.StatusInternalServerError)
		return
	}

	respond(res, nil, http.StatusNoContent)
}

func (s *Server) status(res http.ResponseWriter, req *http.Request) {
	var status session.Status
	if !s.sessionManager.View(func(sess *session.Session) { status = sess.Status() }) {
		status.Reason = session.ErrNoBoard
	}

	respond(res, newStatusResponse(status), http.StatusOK)
}

func (s *Server) layouts(res http.ResponseWriter, req *http.Request) {
	layouts, err := s.Store.ListLayouts()
	if err != nil {
		respond(res, err, http.StatusInternalServerError)
		return
	}

	respond(res, layouts, http.StatusOK)
}

func (s *Server) getLayout(res http.ResponseWriter, req *http.Request) {
	params := httprouter.ParamsFromContext(req.Context())
	name := params.ByName("name")

	layout, err := s.Store.Layout(name)
	if err != nil {
		respondErr(res, err)
		return
	}

	respond(res, layout, http.StatusOK)
}

func (s *Server) putLayout(res http.ResponseWriter, req *http.Request) {
	params := httprouter.ParamsFromContext(req.Context())
	name := params.ByName("name")

	var layout store.Layout
	if err := json.NewDecoder(req.Body).Decode(&layout); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}
	layout.Name = name

	if err := layout.Validate(); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}

	if err := s.Store.PutLayout(layout); err != nil {
		respond(res, err, http.StatusInternalServerError)
		return
	}

	respond(res, nil, http.StatusNoContent)
}

func (s *Server) pins(res http.ResponseWriter, req *http.Request) {
	pins := make([]store.LayoutPin, 0)
	s.sessionManager.View(func(sess *session.Session) {
		pins = lo.Map(sess.Pins(), func(p registry.Pin, _ int) store.LayoutPin {
			return store.LayoutPin{Name: p.Name, Address: p.Address()}
		})
	})

	respond(res, pins, http.StatusOK)
}

func (s *Server) readPin(res http.ResponseWriter, req *http.Request) {
	params := httprouter.ParamsFromContext(req.Context())
	name := params.ByName("name")

	var value float64
	err := s.sessionManager.Do(func(sess *session.Session) error {
		var err error
		value, err = sess.Read(name)
		return err
	})
	if err != nil {
		respondErr(res, err)
		return
	}

	respond(res, pinValue{Name: name, Value: value}, http.StatusOK)
}

func (s *Server) writePin(res http.ResponseWriter, req *http.Request) {
	params := httprouter.ParamsFromContext(req.Context())
	name := params.ByName("name")

	var value float64
	if err := json.NewDecoder(req.Body).Decode(&value); err != nil {
		respond(res, err, http.StatusUnprocessableEntity)
		return
	}

	err := s.sessionManager.Do(func(sess *session.Session) error {
		return sess.Write(name, value)
	})
	if err != nil {
		respondErr(res, err)
		return
	}

	s.Logger.WithField("pin", name).Debugf("wrote %v over http", value)

	respond(res, nil, http.StatusNoContent)
}

func (s *Server) reconnect(res http.ResponseWriter, req *http.Request) {
	status, err := s.sessionManager.Update(req.Context(), s.boardConfig())
	if err != nil {
		s.Logger.Warnf("unable to release previous board: %s", err)
	}

	respond(res, newStatusResponse(status), http.StatusOK)
}

func (s *Server) applyLayout(res http.ResponseWriter, req *http.Request) {
	name := req.URL.Query().Get("name")

	layout, err := s.Store.Layout(name)
	if err != nil {
		respondErr(res, err)
		return
	}

	err = s.sessionManager.Do(func(sess *session.Session) error {
		return layout.Apply(sess)
	})
	if err != nil {
		respondErr(res, err)
		return
	}

	respond(res, nil, http.StatusOK)
}
