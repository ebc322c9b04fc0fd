package backofficesdk

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kantorkita/backoffice/pkg/querycache"
)

const (
	tagVehicle     = "Vehicle"
	tagReservation = "Reservation"
)

// ListVehicles returns the fleet vehicles.
func (s *Session) ListVehicles(ctx context.Context) ([]Vehicle, *Pagination, error) {
	opts := querycache.Options{
		Tags: []querycache.Tag{querycache.NewTag(tagVehicle)},
	}
	return cachedList[Vehicle](ctx, s, "/api/mobil", nil, opts)
}

// GetVehicle returns one vehicle by ID.
func (s *Session) GetVehicle(ctx context.Context, id int) (Vehicle, error) {
	opts := querycache.Options{
		Tags: []querycache.Tag{querycache.NewIDTag(tagVehicle, strconv.Itoa(id))},
	}
	return cachedOne[Vehicle](ctx, s, "/api/mobil/"+strconv.Itoa(id), nil, opts)
}

// ListAvailableVehicles returns the vehicles free for the whole window.
// Tagged with both Vehicle and Reservation: a new booking changes the answer.
func (s *Session) ListAvailableVehicles(ctx context.Context, from, to string) ([]Vehicle, *Pagination, error) {
	params := querycache.Params{"from": from, "to": to}
	opts := querycache.Options{
		Tags: []querycache.Tag{
			querycache.NewTag(tagVehicle),
			querycache.NewTag(tagReservation),
		},
	}
	return cachedList[Vehicle](ctx, s, "/api/mobil/available", params, opts)
}

// ListReservations returns reservations matching the filter.
func (s *Session) ListReservations(ctx context.Context, p ReservationListParams) ([]Reservation, *Pagination, error) {
	params := querycache.Params{}
	if p.VehicleID > 0 {
		params["vehicle_id"] = p.VehicleID
	}
	if p.From != "" {
		params["from"] = p.From
	}
	if p.To != "" {
		params["to"] = p.To
	}
	if p.Status != "" {
		params["status"] = p.Status
	}
	if p.Page > 0 {
		params["page"] = p.Page
	}

	opts := querycache.Options{
		Tags: []querycache.Tag{querycache.NewTag(tagReservation)},
	}
	return cachedList[Reservation](ctx, s, "/api/mobil/reservations", params, opts)
}

// CreateReservation books a vehicle. Vehicle entries are invalidated too:
// a booked vehicle changes availability.
func (s *Session) CreateReservation(ctx context.Context, input ReservationInput) (Reservation, error) {
	var created Reservation
	err := s.mutate(ctx, http.MethodPost, "/api/mobil/reservations", input, &created,
		querycache.NewTag(tagReservation),
		querycache.NewIDTag(tagVehicle, strconv.Itoa(input.VehicleID)))
	return created, err
}

// CancelReservation cancels a reservation.
func (s *Session) CancelReservation(ctx context.Context, id int) error {
	return s.mutate(ctx, http.MethodPost, "/api/mobil/reservations/"+strconv.Itoa(id)+"/cancel", nil, nil,
		querycache.NewIDTag(tagReservation, strconv.Itoa(id)),
		querycache.NewTag(tagVehicle))
}
