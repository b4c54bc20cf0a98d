package main

import (
	orderapp "github.com/corray333/fasttech/internal/app/order"
	"github.com/corray333/fasttech/internal/config"
)

func main() {
	config.MustInit("order-svc")
	orderapp.MustNewApp().Run()
}
