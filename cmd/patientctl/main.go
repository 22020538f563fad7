package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"caredesk.io/patientms/internal/api"
	"caredesk.io/patientms/internal/client"
	"caredesk.io/patientms/internal/patient"
)

// patientctl is the operator front-end for the patient service. Every
// subcommand issues one HTTP call through the typed client.

var (
	serverURL string
	timeout   time.Duration
)

func newClient() *client.Client {
	return client.New(serverURL, timeout)
}

func printView(v patient.View) {
	if v.ID != "" {
		fmt.Printf("id:      %s\n", v.ID)
	}
	fmt.Printf("name:    %s\n", v.Name)
	fmt.Printf("city:    %s\n", v.City)
	fmt.Printf("age:     %d\n", v.Age)
	fmt.Printf("gender:  %s\n", v.Gender)
	fmt.Printf("height:  %.2f\n", v.Height)
	fmt.Printf("weight:  %.2f\n", v.Weight)
	fmt.Printf("bmi:     %.2f\n", v.BMI)
	fmt.Printf("verdict: %s\n", v.Verdict)
}

func printTable(rows []patient.View, withID bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if withID {
		fmt.Fprintln(w, "ID\tNAME\tCITY\tAGE\tGENDER\tHEIGHT\tWEIGHT\tBMI\tVERDICT")
	} else {
		fmt.Fprintln(w, "NAME\tCITY\tAGE\tGENDER\tHEIGHT\tWEIGHT\tBMI\tVERDICT")
	}
	for _, v := range rows {
		if withID {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%.2f\t%.2f\t%.2f\t%s\n",
				v.ID, v.Name, v.City, v.Age, v.Gender, v.Height, v.Weight, v.BMI, v.Verdict)
		} else {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.2f\t%.2f\t%.2f\t%s\n",
				v.Name, v.City, v.Age, v.Gender, v.Height, v.Weight, v.BMI, v.Verdict)
		}
	}
	w.Flush()
}

func main() {
	root := &cobra.Command{
		Use:           "patientctl",
		Short:         "Operator client for the patient management service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	defaultServer := os.Getenv("PATIENTMS_URL")
	if defaultServer == "" {
		defaultServer = "http://127.0.0.1:8080"
	}
	root.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "base URL of the patient service")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		healthCmd(),
		aboutCmd(),
		listCmd(),
		getCmd(),
		sortCmd(),
		createCmd(),
		updateCmd(),
		deleteCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the service is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := newClient().Health(context.Background())
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}

func aboutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "about",
		Short: "Show the service description",
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := newClient().About(context.Background())
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := newClient().View(context.Background())
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(views))
			for id := range views {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			rows := make([]patient.View, 0, len(ids))
			for _, id := range ids {
				v := views[id]
				v.ID = id
				rows = append(rows, v)
			}
			printTable(rows, true)
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newClient().Get(context.Background(), args[0])
			if err != nil {
				return err
			}
			printView(v)
			return nil
		},
	}
}

func sortCmd() *cobra.Command {
	var by, order string
	cmd := &cobra.Command{
		Use:   "sort",
		Short: "List patients sorted by a numeric field",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := newClient().Sort(context.Background(), by, order)
			if err != nil {
				return err
			}
			printTable(rows, false)
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "bmi", "field to sort by: bmi, weight or height")
	cmd.Flags().StringVar(&order, "order", "asc", "sort order: asc or desc")
	return cmd
}

func createCmd() *cobra.Command {
	var req api.CreatePatientRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a patient record",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newClient().Create(context.Background(), req)
			if err != nil {
				return err
			}
			fmt.Println("Patient created")
			printView(v)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.ID, "id", "", "patient id")
	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.City, "city", "", "city of residence")
	cmd.Flags().IntVar(&req.Age, "age", 0, "age in years")
	cmd.Flags().StringVar(&req.Gender, "gender", "", "gender: male, female or others")
	cmd.Flags().Float64Var(&req.Height, "height", 0, "height in meters")
	cmd.Flags().Float64Var(&req.Weight, "weight", 0, "weight in kilograms")
	cmd.MarkFlagRequired("id")
	return cmd
}

func updateCmd() *cobra.Command {
	var (
		name, city, gender string
		age                int
		height, weight     float64
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a patient record (only supplied flags are sent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd patient.Update
			if cmd.Flags().Changed("name") {
				upd.Name = &name
			}
			if cmd.Flags().Changed("city") {
				upd.City = &city
			}
			if cmd.Flags().Changed("age") {
				upd.Age = &age
			}
			if cmd.Flags().Changed("gender") {
				upd.Gender = &gender
			}
			if cmd.Flags().Changed("height") {
				upd.Height = &height
			}
			if cmd.Flags().Changed("weight") {
				upd.Weight = &weight
			}

			v, err := newClient().Update(context.Background(), args[0], upd)
			if err != nil {
				return err
			}
			fmt.Println("Patient updated")
			printView(v)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&city, "city", "", "city of residence")
	cmd.Flags().IntVar(&age, "age", 0, "age in years")
	cmd.Flags().StringVar(&gender, "gender", "", "gender: male, female or others")
	cmd.Flags().Float64Var(&height, "height", 0, "height in meters")
	cmd.Flags().Float64Var(&weight, "weight", 0, "weight in kilograms")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a patient record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := newClient().Delete(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
}
