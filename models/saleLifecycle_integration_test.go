package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/ledger_backend/config"
	"bitbucket.org/mmdatafocus/ledger_backend/models"
	"bitbucket.org/mmdatafocus/ledger_backend/models/reports"
	"github.com/shopspring/decimal"
)

func TestSaleLifecycleStockPaymentsAndReport(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "ledger_test")
	t.Setenv("ENABLE_REPORT_CACHE", "")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:          "Stapler",
		Category:      "Stationery",
		StockQuantity: decimal.NewFromInt(25),
		ReorderLevel:  5,
		UnitPrice:     decimal.NewFromInt(500),
		CostPrice:     decimal.NewFromInt(200),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	saleDate := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	sale, err := models.CreateSale(ctx, &models.NewSale{
		ProductName:  "Stapler",
		Category:     "Stationery",
		Quantity:     decimal.NewFromInt(2),
		UnitPrice:    decimal.NewFromInt(500),
		CostPrice:    decimal.NewFromInt(200),
		PaidAmount:   decimal.NewFromInt(400),
		CustomerName: "Aye Aye",
		SaleDate:     saleDate,
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	if !sale.TotalAmount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("sale total = %s, want 1000", sale.TotalAmount)
	}
	if sale.PaymentStatus != models.PaymentStatusPartial {
		t.Fatalf("payment status = %s, want PARTIAL", sale.PaymentStatus)
	}
	if !sale.RemainingBalance.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("remaining balance = %s, want 600", sale.RemainingBalance)
	}

	// Sale decrements tracked stock.
	product, err = models.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if !product.StockQuantity.Equal(decimal.NewFromInt(23)) {
		t.Fatalf("stock after sale = %s, want 23", product.StockQuantity)
	}

	// Settle the balance.
	sale, err = models.RecordSalePayment(ctx, sale.ID, decimal.NewFromInt(600))
	if err != nil {
		t.Fatalf("RecordSalePayment: %v", err)
	}
	if sale.PaymentStatus != models.PaymentStatusPaid || !sale.RemainingBalance.IsZero() {
		t.Fatalf("after settlement status = %s balance = %s, want PAID / 0", sale.PaymentStatus, sale.RemainingBalance)
	}

	// Overpaying a settled sale must fail.
	if _, err := models.RecordSalePayment(ctx, sale.ID, decimal.NewFromInt(1)); err == nil {
		t.Fatal("expected error paying an already settled sale")
	}

	// A return restocks the product.
	saleReturn, err := models.CreateSaleReturn(ctx, &models.NewSaleReturn{
		SaleId:       sale.ID,
		Quantity:     decimal.NewFromInt(1),
		RefundAmount: decimal.NewFromInt(500),
		ReturnDate:   saleDate.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateSaleReturn: %v", err)
	}
	product, err = models.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if !product.StockQuantity.Equal(decimal.NewFromInt(24)) {
		t.Fatalf("stock after return = %s, want 24", product.StockQuantity)
	}

	// A sale with open returns cannot be deleted.
	if _, err := models.DeleteSale(ctx, sale.ID); err == nil {
		t.Fatal("expected error deleting a sale with returns")
	}

	if _, err := models.CreateExpense(ctx, &models.NewExpense{
		Category:    "Rent",
		Amount:      decimal.NewFromInt(150),
		ExpenseDate: saleDate,
	}); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	resp, err := reports.GetProfitAndLossReport(ctx,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GetProfitAndLossReport: %v", err)
	}
	if !resp.Revenue.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("report revenue = %s, want 1000", resp.Revenue)
	}
	if !resp.Refunds.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("report refunds = %s, want 500", resp.Refunds)
	}
	if !resp.TotalExpenses.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("report expenses = %s, want 150", resp.TotalExpenses)
	}

	// Deleting the return reverses its restock; deleting the sale returns its
	// units, so stock ends where it started.
	if _, err := models.DeleteSaleReturn(ctx, saleReturn.ID); err != nil {
		t.Fatalf("DeleteSaleReturn: %v", err)
	}
	if _, err := models.DeleteSale(ctx, sale.ID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}
	product, err = models.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if !product.StockQuantity.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("stock after cleanup = %s, want 25", product.StockQuantity)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("ledger-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("ledger-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=ledger_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
