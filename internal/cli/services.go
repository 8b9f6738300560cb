package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atinyakov/mycraft/internal/client/router"
	"github.com/atinyakov/mycraft/internal/models"
	"github.com/spf13/cobra"
)

func (a *App) servicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "services",
		Aliases: []string{"jobs"},
		Short:   "Browse and manage marketplace services",
	}
	cmd.AddCommand(
		a.servicesListCmd(),
		a.servicesShowCmd(),
		a.servicesCreateCmd(),
		a.servicesUpdateCmd(),
		a.servicesDeleteCmd(),
		a.servicesMineCmd(),
		a.servicesAdviceCmd(),
		a.servicesSuggestAddressCmd(),
	)
	return cmd
}

func (a *App) servicesListCmd() *cobra.Command {
	var (
		f     models.ServiceFilter
		trade string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List services on the marketplace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(router.Marketplace, nil); err != nil {
				return err
			}
			f.Trade = models.Trade(strings.ToUpper(trade))
			page, err := a.gw.ListServices(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("list services: %w", err)
			}
			printServices(a.out, page.Results, page.Count)
			if page.Next != nil {
				fmt.Fprintln(a.out, dimStyle.Render(fmt.Sprintf("More results: --page %d", max(f.Page, 1)+1)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.Search, "search", "s", "", "full-text search")
	cmd.Flags().StringVarP(&trade, "trade", "t", "", "trade (PLUMBER, ELECTRICIAN, PAINTER, CARPENTER, GARDENER, OTHER)")
	cmd.Flags().StringVar(&f.City, "city", "", "city")
	cmd.Flags().StringVar(&f.Lat, "lat", "", "latitude of the search center")
	cmd.Flags().StringVar(&f.Lng, "lng", "", "longitude of the search center")
	cmd.Flags().StringVar(&f.Radius, "radius", "", "search radius in km")
	cmd.Flags().IntVar(&f.Page, "page", 0, "result page")
	cmd.Flags().IntVar(&f.PageSize, "page-size", 0, "results per page")
	return cmd
}

func (a *App) servicesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a service with its booked dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.enter(router.ServiceDetail, map[string]string{"id": args[0]}); err != nil {
				return err
			}
			s, err := a.gw.GetService(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get service: %w", err)
			}
			printService(a.out, s)

			booked, err := a.gw.ServiceAvailability(cmd.Context(), id)
			if err != nil {
				a.toasts.Warning("Could not load the booked dates.")
				return nil
			}
			if len(booked) > 0 {
				fmt.Fprintf(a.out, "Booked:     %s\n", strings.Join(booked, ", "))
			}
			return nil
		},
	}
}

type serviceFlags struct {
	in    models.ServiceInput
	trade string
	lat   float64
	lng   float64
}

func (sf *serviceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sf.in.Title, "title", "", "title")
	cmd.Flags().StringVar(&sf.in.Description, "description", "", "description")
	cmd.Flags().StringVarP(&sf.trade, "trade", "t", "", "trade")
	cmd.Flags().StringVar(&sf.in.ZipCode, "zip", "", "zip code")
	cmd.Flags().StringVar(&sf.in.City, "city", "", "city")
	cmd.Flags().StringVar(&sf.in.ExecutionDate, "date", "", "execution date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&sf.in.Price, "price", "", "price")
	cmd.Flags().Float64Var(&sf.lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&sf.lng, "lng", 0, "longitude")
}

func (sf *serviceFlags) input(cmd *cobra.Command) models.ServiceInput {
	in := sf.in
	in.Trade = models.Trade(strings.ToUpper(sf.trade))
	if cmd.Flags().Changed("lat") {
		in.Lat = &sf.lat
	}
	if cmd.Flags().Changed("lng") {
		in.Lng = &sf.lng
	}
	return in
}

func (a *App) servicesCreateCmd() *cobra.Command {
	var sf serviceFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Offer a new service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(router.CreateService, nil); err != nil {
				return err
			}
			s, err := a.gw.CreateService(cmd.Context(), sf.input(cmd))
			if err != nil {
				return fmt.Errorf("create service: %w", err)
			}
			a.toasts.Success(fmt.Sprintf("Service #%d created.", s.ID))
			printService(a.out, s)
			return nil
		},
	}
	sf.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("trade")
	_ = cmd.MarkFlagRequired("zip")
	return cmd
}

func (a *App) servicesUpdateCmd() *cobra.Command {
	var sf serviceFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit one of your services",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.enter(router.EditService, map[string]string{"id": args[0]}); err != nil {
				return err
			}
			s, err := a.gw.UpdateService(cmd.Context(), id, sf.input(cmd))
			if err != nil {
				return fmt.Errorf("update service: %w", err)
			}
			a.toasts.Success("Service updated.")
			printService(a.out, s)
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

func (a *App) servicesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove one of your services",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.enter(router.MyJobs, nil); err != nil {
				return err
			}
			if err := a.gw.DeleteService(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete service: %w", err)
			}
			a.toasts.Success(fmt.Sprintf("Service #%d deleted.", id))
			return nil
		},
	}
}

func (a *App) servicesMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List the services you offer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(router.MyJobs, nil); err != nil {
				return err
			}
			jobs, err := a.gw.MyJobs(cmd.Context())
			if err != nil {
				return fmt.Errorf("list my services: %w", err)
			}
			printServices(a.out, jobs, len(jobs))
			return nil
		},
	}
}

func (a *App) servicesAdviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advice <id>",
		Short: "Ask for a price estimate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.enter(router.ServiceDetail, map[string]string{"id": args[0]}); err != nil {
				return err
			}
			advice, err := a.gw.PriceAdvice(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("price advice: %w", err)
			}
			fmt.Fprintln(a.out, advice.Advice)
			return nil
		},
	}
}

func (a *App) servicesSuggestAddressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest-address <query>",
		Short: "Look up addresses for a service location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hits, err := a.gw.SuggestAddress(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("suggest address: %w", err)
			}
			if len(hits) == 0 {
				fmt.Fprintln(a.out, "No matching addresses")
				return nil
			}
			for _, h := range hits {
				fmt.Fprintf(a.out, "%s %s\n", h.DisplayName,
					dimStyle.Render(strconv.FormatFloat(h.Lat, 'f', 5, 64)+","+strconv.FormatFloat(h.Lng, 'f', 5, 64)))
			}
			return nil
		},
	}
}
