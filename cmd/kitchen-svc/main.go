package main

import (
	kitchenapp "github.com/corray333/fasttech/internal/app/kitchen"
	"github.com/corray333/fasttech/internal/config"
)

func main() {
	config.MustInit("kitchen-svc")
	kitchenapp.MustNewApp().Run()
}
