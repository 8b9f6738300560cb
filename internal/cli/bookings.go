package cli

import (
	"fmt"

	"github.com/atinyakov/mycraft/internal/client/router"
	"github.com/atinyakov/mycraft/internal/models"
	"github.com/spf13/cobra"
)

func (a *App) bookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Book services and manage bookings",
	}
	cmd.AddCommand(
		a.bookCmd(),
		a.bookingListCmd("mine", "Bookings you made", "My bookings", a.gwMyBookings),
		a.bookingListCmd("orders", "Bookings of your services", "Orders", a.gwMyOrders),
		a.bookingActionCmd("complete", "Mark a booking as completed", "Booking #%d completed.", a.gwComplete),
		a.bookingActionCmd("cancel", "Cancel a booking", "Booking #%d cancelled.", a.gwCancel),
	)
	return cmd
}

func (a *App) bookCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "book <service-id>",
		Short: "Book a service on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.enter(router.Bookings, nil); err != nil {
				return err
			}
			b, err := a.gw.CreateBooking(cmd.Context(), models.BookingRequest{ServiceID: id, ScheduledDate: date})
			if err != nil {
				return fmt.Errorf("book service: %w", err)
			}
			a.toasts.Success(fmt.Sprintf("Booking #%d requested for %s.", b.ID, b.ScheduledDate))
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

type bookingsFunc func(cmd *cobra.Command) ([]models.Booking, error)

func (a *App) gwMyBookings(cmd *cobra.Command) ([]models.Booking, error) {
	return a.gw.MyBookings(cmd.Context())
}

func (a *App) gwMyOrders(cmd *cobra.Command) ([]models.Booking, error) {
	return a.gw.MyOrders(cmd.Context())
}

func (a *App) bookingListCmd(use, short, title string, list bookingsFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(router.Bookings, nil); err != nil {
				return err
			}
			bookings, err := list(cmd)
			if err != nil {
				return fmt.Errorf("list %s: %w", use, err)
			}
			printBookings(a.out, title, bookings)
			return nil
		},
	}
}

type bookingActionFunc func(cmd *cobra.Command, id int64) (*models.Booking, error)

func (a *App) gwComplete(cmd *cobra.Command, id int64) (*models.Booking, error) {
	return a.gw.MarkBookingCompleted(cmd.Context(), id)
}

func (a *App) gwCancel(cmd *cobra.Command, id int64) (*models.Booking, error) {
	return a.gw.CancelBooking(cmd.Context(), id)
}

func (a *App) bookingActionCmd(use, short, done string, action bookingActionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <booking-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.enter(router.Bookings, nil); err != nil {
				return err
			}
			if _, err := action(cmd, id); err != nil {
				return fmt.Errorf("%s booking: %w", use, err)
			}
			a.toasts.Success(fmt.Sprintf(done, id))
			return nil
		},
	}
}

func (a *App) reviewCmd() *cobra.Command {
	var r models.ReviewRequest
	cmd := &cobra.Command{
		Use:   "review <booking-id>",
		Short: "Rate a completed booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.enter(router.Bookings, nil); err != nil {
				return err
			}
			if r.Rating < 1 || r.Rating > 5 {
				return fmt.Errorf("rating must be between 1 and 5, got %d", r.Rating)
			}
			r.Booking = id
			if _, err := a.gw.CreateReview(cmd.Context(), r); err != nil {
				return fmt.Errorf("review booking: %w", err)
			}
			a.toasts.Success("Thanks for your review.")
			return nil
		},
	}
	cmd.Flags().IntVarP(&r.Rating, "rating", "r", 0, "rating from 1 to 5")
	cmd.Flags().StringVarP(&r.Comment, "comment", "m", "", "comment")
	return cmd
}

func (a *App) overviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show your services, bookings and orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(router.Profile, nil); err != nil {
				return err
			}
			ov, err := a.gw.Overview(cmd.Context())
			if err != nil {
				return fmt.Errorf("overview: %w", err)
			}
			printUser(a.out, a.session.CurrentUser())
			fmt.Fprintln(a.out)
			if a.session.IsCraftsman() {
				printServices(a.out, ov.MyJobs, len(ov.MyJobs))
				fmt.Fprintln(a.out)
				printBookings(a.out, "Orders", ov.MyOrders)
				fmt.Fprintln(a.out)
			}
			printBookings(a.out, "My bookings", ov.MyBookings)
			return nil
		},
	}
}
