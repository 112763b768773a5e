// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"overlook_hotel/internal/adapters/observability"
	"overlook_hotel/internal/app"
	"overlook_hotel/internal/domain"
)

type Handlers struct {
	Cmd *app.BookingService
	Q   *app.QueryService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1/guests", func(r chi.Router) {
		r.Post("/", h.createGuest)
		r.Get("/", h.findGuest)
		r.Get("/{id}", h.getGuest)
		r.Put("/{id}", h.updateGuest)
		r.Delete("/{id}", h.deleteGuest)
		r.Get("/{id}/reservations", h.listGuestReservations)
		r.Delete("/{id}/reservations/{reservationID}", h.removeGuestReservation)
	})

	s.mux.Route("/v1/rooms", func(r chi.Router) {
		r.Post("/", h.createRoom)
		r.Get("/", h.findRoom)
		r.Get("/{id}", h.getRoom)
		r.Put("/{id}", h.updateRoom)
		r.Delete("/{id}", h.deleteRoom)
		r.Put("/{id}/manager", h.assignRoomManager)
		r.Get("/{id}/availability", h.roomAvailability)
		r.Get("/{id}/reservations", h.listRoomReservations)
		r.Delete("/{id}/reservations/{reservationID}", h.removeRoomReservation)
	})

	s.mux.Route("/v1/staff", func(r chi.Router) {
		r.Post("/", h.createStaff)
		r.Get("/", h.findStaff)
		r.Get("/{id}", h.getStaff)
		r.Put("/{id}", h.updateStaff)
		r.Delete("/{id}", h.deleteStaff)
		r.Put("/{id}/manager", h.assignStaffManager)
		r.Post("/{id}/promotion", h.promote)
		r.Get("/{id}/reservations", h.listStaffReservations)
	})

	s.mux.Route("/v1/managers", func(r chi.Router) {
		r.Get("/{id}", h.getManager)
		r.Delete("/{id}", h.demote)
		r.Get("/{id}/team", h.listTeam)
		r.Get("/{id}/rooms", h.listManagedRooms)
	})

	s.mux.Route("/v1/reservations", func(r chi.Router) {
		r.Post("/", h.createReservation)
		r.Get("/", h.findReservation)
		r.Get("/{id}", h.getReservation)
		r.Put("/{id}", h.updateReservation)
		r.Delete("/{id}", h.deleteReservation)
		r.Post("/{id}/transitions", h.transition)
		r.Put("/{id}/staff", h.assignStaff)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// statusFor maps domain failures onto HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrCapacity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUniqueness),
		errors.Is(err, domain.ErrOverlap),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, status, http.StatusText(status), "internal error")
		return
	}
	observability.ObserveRejection(err)
	writeProblem(w, status, http.StatusText(status), err.Error())
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeRead serves GET responses with a weak ETag and honours If-None-Match.
func writeRead(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", name+" must be a positive number")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return false
	}
	return true
}

func queryParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		writeProblem(w, http.StatusBadRequest, "Missing query parameter", name+" is required")
		return "", false
	}
	return v, true
}

// refBody carries an optional foreign key; null or 0 clears the link.
type refBody struct {
	ManagerID *int64 `json:"manager_id,omitempty"`
	StaffID   *int64 `json:"staff_id,omitempty"`
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// ---- guests ----

func (h *Handlers) createGuest(w http.ResponseWriter, r *http.Request) {
	var in guestDTO
	if !decode(w, r, &in) {
		return
	}
	g, err := in.toDomain()
	if err == nil {
		g, err = h.Cmd.CreateGuest(r.Context(), g)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGuestDTO(g))
}

func (h *Handlers) findGuest(w http.ResponseWriter, r *http.Request) {
	email, ok := queryParam(w, r, "email")
	if !ok {
		return
	}
	g, err := h.Q.GetGuestByEmail(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, toGuestDTO(g))
}

func (h *Handlers) getGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	g, err := h.Q.GetGuest(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, toGuestDTO(g))
}

func (h *Handlers) updateGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in guestDTO
	if !decode(w, r, &in) {
		return
	}
	in.ID = id
	g, err := in.toDomain()
	if err == nil {
		g, err = h.Cmd.UpdateGuest(r.Context(), g)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGuestDTO(g))
}

func (h *Handlers) deleteGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Cmd.DeleteGuest(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listGuestReservations(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	list, err := h.Q.ListGuestReservations(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, mapSlice(list, toReservationDTO))
}

func (h *Handlers) removeGuestReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	resID, ok := idParam(w, r, "reservationID")
	if !ok {
		return
	}
	if err := h.Cmd.RemoveGuestReservation(r.Context(), id, resID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- rooms ----

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	var in roomDTO
	if !decode(w, r, &in) {
		return
	}
	room, err := h.Cmd.CreateRoom(r.Context(), in.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomDTO(room))
}

func (h *Handlers) findRoom(w http.ResponseWriter, r *http.Request) {
	number, ok := queryParam(w, r, "number")
	if !ok {
		return
	}
	room, err := h.Q.GetRoomByNumber(r.Context(), number)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, toRoomDTO(room))
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	room, err := h.Q.GetRoom(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, toRoomDTO(room))
}

func (h *Handlers) updateRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in roomDTO
	if !decode(w, r, &in) {
		return
	}
	in.ID = id
	room, err := h.Cmd.UpdateRoom(r.Context(), in.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(room))
}

func (h *Handlers) deleteRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Cmd.DeleteRoom(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) assignRoomManager(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in refBody
	if !decode(w, r, &in) {
		return
	}
	room, err := h.Cmd.AssignRoomManager(r.Context(), id, deref(in.ManagerID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(room))
}

type availabilityDTO struct {
	RoomID    int64  `json:"room_id"`
	CheckIn   string `json:"check_in_date"`
	CheckOut  string `json:"check_out_date"`
	Available bool   `json:"available"`
}

func (h *Handlers) roomAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	in, err := parseDate(domain.EntityReservation, "check_in_date", q.Get("check_in"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := parseDate(domain.EntityReservation, "check_out_date", q.Get("check_out"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	free, err := h.Q.CheckAvailability(r.Context(), id, in, out)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, availabilityDTO{
		RoomID: id, CheckIn: fmtDate(&in), CheckOut: fmtDate(&out), Available: free,
	})
}

func (h *Handlers) listRoomReservations(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	list, err := h.Q.ListRoomReservations(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, mapSlice(list, toReservationDTO))
}

func (h *Handlers) removeRoomReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	resID, ok := idParam(w, r, "reservationID")
	if !ok {
		return
	}
	if err := h.Cmd.RemoveRoomReservation(r.Context(), id, resID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- staff and managers ----

func (h *Handlers) createStaff(w http.ResponseWriter, r *http.Request) {
	var in staffDTO
	if !decode(w, r, &in) {
		return
	}
	st, err := in.toDomain()
	if err == nil {
		st, err = h.Cmd.CreateStaff(r.Context(), st)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStaffDTO(st))
}

func (h *Handlers) findStaff(w http.ResponseWriter, r *http.Request) {
	email, ok := queryParam(w, r, "email")
	if !ok {
		return
	}
	st, err := h.Q.GetStaffByEmail(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, toStaffDTO(st))
}

func (h *Handlers) getStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	st, err := h.Q.GetStaff(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, toStaffDTO(st))
}

func (h *Handlers) updateStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in staffDTO
	if !decode(w, r, &in) {
		return
	}
	in.ID = id
	st, err := in.toDomain()
	if err == nil {
		st, err = h.Cmd.UpdateStaff(r.Context(), st)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffDTO(st))
}

func (h *Handlers) deleteStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Cmd.DeleteStaff(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) assignStaffManager(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in refBody
	if !decode(w, r, &in) {
		return
	}
	st, err := h.Cmd.AssignStaffManager(r.Context(), id, deref(in.ManagerID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffDTO(st))
}

func (h *Handlers) promote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.ManagementInfo
	if !decode(w, r, &in) {
		return
	}
	st, err := h.Cmd.PromoteToManager(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffDTO(st))
}

func (h *Handlers) listStaffReservations(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	list, err := h.Q.ListStaffReservations(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, mapSlice(list, toReservationDTO))
}

func (h *Handlers) getManager(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	m, err := h.Q.GetManager(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, toStaffDTO(m))
}

func (h *Handlers) demote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	st, err := h.Cmd.DemoteManager(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffDTO(st))
}

func (h *Handlers) listTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	team, err := h.Q.ListTeam(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, mapSlice(team, toStaffDTO))
}

func (h *Handlers) listManagedRooms(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	rooms, err := h.Q.ListManagedRooms(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, mapSlice(rooms, toRoomDTO))
}

// ---- reservations ----

func (h *Handlers) createReservation(w http.ResponseWriter, r *http.Request) {
	var in reservationDTO
	if !decode(w, r, &in) {
		return
	}
	res, err := in.toDomain()
	if err == nil {
		res, err = h.Cmd.CreateReservation(r.Context(), res)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationDTO(res))
}

func (h *Handlers) findReservation(w http.ResponseWriter, r *http.Request) {
	code, ok := queryParam(w, r, "code")
	if !ok {
		return
	}
	res, err := h.Q.GetReservationByCode(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, toReservationDTO(res))
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	res, err := h.Q.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRead(w, r, toReservationDTO(res))
}

func (h *Handlers) updateReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in reservationDTO
	if !decode(w, r, &in) {
		return
	}
	in.ID = id
	res, err := in.toDomain()
	if err == nil {
		res, err = h.Cmd.UpdateReservation(r.Context(), res)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

func (h *Handlers) deleteReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Cmd.DeleteReservation(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		Status domain.ReservationStatus `json:"status"`
	}
	if !decode(w, r, &in) {
		return
	}
	res, err := h.Cmd.Transition(r.Context(), id, in.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}

func (h *Handlers) assignStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in refBody
	if !decode(w, r, &in) {
		return
	}
	res, err := h.Cmd.AssignStaff(r.Context(), id, deref(in.StaffID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(res))
}
