package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"keuangan/internal/core"
	"keuangan/internal/log"
	"keuangan/internal/services"
)

const (
	msgSettingsSaved = "Settings tersimpan!"
	msgTxCreated     = "Transaksi ditambahkan."
	msgTxUpdated     = "Transaksi diperbarui."
	msgTxDeleted     = "Transaksi dihapus."
)

// page is the data every template receives. Data holds the page-specific
// view model.
type page struct {
	Title    string
	Nav      string
	Flash    *Flash
	Currency string
	Data     any
}

type txFormData struct {
	Tx     *core.Transaction
	Action string
	Values services.TransactionInput
	Errors map[string]string
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	t, ok := s.templates[name]
	if !ok {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", "template", name)
		s.internalError(w, "templates not loaded")
		return
	}

	p.Flash = s.flashes.Pop(w, r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		log.FromContext(r.Context()).Failure(r.Context(), "Template execution failed", err, log.OpRender, log.ErrorTypeInternal,
			log.NewFields().WithComponent(log.ComponentTemplate))
		s.internalError(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.ledger.Dashboard(r.Context(), s.now())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", page{
		Title:    "Dashboard",
		Nav:      "dashboard",
		Currency: d.Settings.Currency,
		Data:     d,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r, core.MonthOf(s.now()))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	rep, err := s.ledger.Report(r.Context(), ym)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, http.StatusOK, "report", page{
		Title:    "Laporan " + ym.String(),
		Nav:      "report",
		Currency: rep.Settings.Currency,
		Data:     rep,
	})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Settings(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, http.StatusOK, "settings", page{
		Title:    "Settings",
		Nav:      "settings",
		Currency: st.Currency,
		Data:     st,
	})
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		http.Error(w, "Format permintaan tidak valid", http.StatusBadRequest)
		return
	}
	if _, err := s.ledger.UpdateSettings(r.Context(), p.SettingsUpdate()); err != nil {
		s.fail(w, r, log.OpUpdateSettings, err)
		return
	}
	NewRedirect("/settings").Success(msgSettingsSaved).Send(w, r, s.flashes)
}

func (s *Server) handleNewTransaction(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.Settings(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, http.StatusOK, "tx_form", page{
		Title:    "Transaksi baru",
		Nav:      "new",
		Currency: st.Currency,
		Data: txFormData{
			Action: "/tx/new",
			Values: services.TransactionInput{
				Date: s.now().Format("2006-01-02"),
				Type: string(core.Expense),
			},
		},
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		http.Error(w, "Format permintaan tidak valid", http.StatusBadRequest)
		return
	}
	in := p.TransactionInput()

	if _, err := s.ledger.Create(r.Context(), in); err != nil {
		if s.invalidForm(w, r, err, "Transaksi baru", txFormData{Action: "/tx/new", Values: in}) {
			return
		}
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewRedirect("/").Success(msgTxCreated).Send(w, r, s.flashes)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tx, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	st, err := s.ledger.Settings(r.Context())
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	s.render(w, r, http.StatusOK, "tx_form", page{
		Title:    "Ubah transaksi",
		Nav:      "report",
		Currency: st.Currency,
		Data: txFormData{
			Tx:     &tx,
			Action: "/tx/" + tx.ID + "/edit",
			Values: inputFrom(tx),
		},
	})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		http.Error(w, "Format permintaan tidak valid", http.StatusBadRequest)
		return
	}
	in := p.TransactionInput()

	tx, err := s.ledger.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			if _, getErr := s.ledger.Get(r.Context(), id); getErr != nil {
				s.fail(w, r, log.OpUpdate, getErr)
				return
			}
		}
		existing := core.Transaction{ID: id}
		if s.invalidForm(w, r, err, "Ubah transaksi", txFormData{Tx: &existing, Action: "/tx/" + id + "/edit", Values: in}) {
			return
		}
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewRedirect("/report/" + core.MonthOf(tx.Date.Time).String()).Success(msgTxUpdated).Send(w, r, s.flashes)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := s.ledger.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	if !removed {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Delete of unknown transaction", log.FieldTxID, id)
	}
	back := sameOriginPath(r.Header.Get("Referer"), r.Host, "/")
	NewRedirect(back).Success(msgTxDeleted).Send(w, r, s.flashes)
}

// invalidForm re-renders the transaction form with field errors when err is
// a validation failure. It reports whether it wrote a response.
func (s *Server) invalidForm(w http.ResponseWriter, r *http.Request, err error, title string, data txFormData) bool {
	var verr *services.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	log.FromContext(r.Context()).Event(r.Context(), s.logLevelFor(http.StatusUnprocessableEntity), "Transaction rejected",
		log.NewFields().WithError(err).WithErrorType(log.ErrorTypeValidation))

	currency := core.DefaultSettings().Currency
	if st, err := s.ledger.Settings(r.Context()); err == nil {
		currency = st.Currency
	}
	data.Errors = verr.Fields
	s.render(w, r, http.StatusUnprocessableEntity, "tx_form", page{
		Title:    title,
		Nav:      "new",
		Currency: currency,
		Data:     data,
	})
	return true
}

func inputFrom(tx core.Transaction) services.TransactionInput {
	var date string
	if !tx.Date.IsZero() {
		date = tx.Date.Key()
	}
	return services.TransactionInput{
		Date:     date,
		Type:     string(tx.Type),
		Category: tx.Category,
		Note:     tx.Note,
		Amount:   strconv.FormatFloat(tx.Amount, 'f', -1, 64),
	}
}
