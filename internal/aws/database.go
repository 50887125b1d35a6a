package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/vietdv277/stratus/internal/stack"
	pkgtypes "github.com/vietdv277/stratus/pkg/types"
)

// EnsureDatabase provides the shared managed database for the whole
// fleet: its own access policy admitting port 3306 from the fleet group
// only, a subnet group, the instance itself, and the credential stored
// in Secrets Manager. Blocks until the endpoint is available, since the
// launch template needs it.
func (c *Client) EnsureDatabase(ctx context.Context, plan *stack.Plan, network pkgtypes.Network, fleetPolicy pkgtypes.AccessPolicy) (pkgtypes.Database, error) {
	dbPlan := plan.Database
	if dbPlan == nil {
		return pkgtypes.Database{}, fmt.Errorf("plan has no database resource")
	}

	policy, err := c.ensurePolicy(ctx, plan, network.ID, dbPlan.Policy, fleetPolicy.ID)
	if err != nil {
		return pkgtypes.Database{}, err
	}

	secretARN, err := c.ensureSecret(ctx, plan.Name, dbPlan.Username, plan.Bootstrap.Password)
	if err != nil {
		return pkgtypes.Database{}, err
	}

	subnetGroup := dbPlan.Identifier + "-subnets"
	_, err = c.RDS.CreateDBSubnetGroup(ctx, &rds.CreateDBSubnetGroupInput{
		DBSubnetGroupName:        aws.String(subnetGroup),
		DBSubnetGroupDescription: aws.String("Subnets for the " + plan.Name + " database"),
		SubnetIds:                network.SubnetIDs(),
	})
	if err != nil && !isDuplicate(err) {
		return pkgtypes.Database{}, fmt.Errorf("failed to create DB subnet group: %w", err)
	}

	instance, err := c.findDatabase(ctx, dbPlan.Identifier)
	if err != nil {
		return pkgtypes.Database{}, err
	}

	if instance == nil {
		created, err := c.RDS.CreateDBInstance(ctx, &rds.CreateDBInstanceInput{
			DBInstanceIdentifier: aws.String(dbPlan.Identifier),
			Engine:               aws.String(dbPlan.Engine),
			DBInstanceClass:      aws.String(dbPlan.Class),
			AllocatedStorage:     aws.Int32(int32(dbPlan.StorageGB)),
			DBName:               aws.String(dbPlan.Schema),
			MasterUsername:       aws.String(dbPlan.Username),
			MasterUserPassword:   aws.String(plan.Bootstrap.Password),
			VpcSecurityGroupIds:  []string{policy.ID},
			DBSubnetGroupName:    aws.String(subnetGroup),
			PubliclyAccessible:   aws.Bool(false),
		})
		if err != nil {
			return pkgtypes.Database{}, fmt.Errorf("failed to create DB instance: %w", err)
		}
		instance = created.DBInstance
	}

	instance, err = c.waitDatabaseAvailable(ctx, dbPlan.Identifier)
	if err != nil {
		return pkgtypes.Database{}, err
	}

	db := toDatabase(*instance)
	db.SecretARN = secretARN
	return db, nil
}

func (c *Client) findDatabase(ctx context.Context, identifier string) (*rdstypes.DBInstance, error) {
	output, err := c.RDS.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(identifier),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to describe DB instances: %w", err)
	}
	if len(output.DBInstances) == 0 {
		return nil, nil
	}
	return &output.DBInstances[0], nil
}

func (c *Client) waitDatabaseAvailable(ctx context.Context, identifier string) (*rdstypes.DBInstance, error) {
	for {
		instance, err := c.findDatabase(ctx, identifier)
		if err != nil {
			return nil, err
		}
		if instance == nil {
			return nil, fmt.Errorf("DB instance %q vanished while waiting", identifier)
		}
		if deref(instance.DBInstanceStatus) == "available" && instance.Endpoint != nil {
			return instance, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(15 * time.Second):
		}
	}
}

// toDatabase converts an SDK DB instance to our type
func toDatabase(i rdstypes.DBInstance) pkgtypes.Database {
	db := pkgtypes.Database{
		ID:       deref(i.DBInstanceIdentifier),
		Engine:   deref(i.Engine),
		Name:     deref(i.DBName),
		Username: deref(i.MasterUsername),
		Status:   deref(i.DBInstanceStatus),
	}
	if i.Endpoint != nil {
		db.Endpoint = deref(i.Endpoint.Address)
		db.Port = int(deref32(i.Endpoint.Port))
	}
	return db
}

func (c *Client) destroyDatabase(ctx context.Context, plan *stack.Plan) error {
	dbPlan := plan.Database
	if dbPlan == nil {
		return stack.ErrNotFound
	}

	found := false

	instance, err := c.findDatabase(ctx, dbPlan.Identifier)
	if err != nil {
		return err
	}
	if instance != nil {
		found = true
		_, err = c.RDS.DeleteDBInstance(ctx, &rds.DeleteDBInstanceInput{
			DBInstanceIdentifier:   aws.String(dbPlan.Identifier),
			SkipFinalSnapshot:      aws.Bool(true),
			DeleteAutomatedBackups: aws.Bool(true),
		})
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("failed to delete DB instance: %w", err)
		}

		for {
			instance, err := c.findDatabase(ctx, dbPlan.Identifier)
			if err != nil {
				return err
			}
			if instance == nil {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(15 * time.Second):
			}
		}
	}

	_, err = c.RDS.DeleteDBSubnetGroup(ctx, &rds.DeleteDBSubnetGroupInput{
		DBSubnetGroupName: aws.String(dbPlan.Identifier + "-subnets"),
	})
	if err == nil {
		found = true
	} else if !isNotFound(err) {
		return fmt.Errorf("failed to delete DB subnet group: %w", err)
	}

	if err := c.deleteSecret(ctx, plan.Name); err != nil {
		return err
	}

	if !found {
		return stack.ErrNotFound
	}
	return nil
}
